package plugin

import (
	"io"
	"os"
	"regexp"
	"strings"
)

// headerReadLimit mirrors how much of the main file the host reads when
// looking for the header block.
const headerReadLimit = 8 * 1024

// Headers is the metadata block at the top of a plugin's main file.
type Headers struct {
	Name        string `json:"name"`
	PluginURI   string `json:"pluginUri,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	AuthorURI   string `json:"authorUri,omitempty"`
	License     string `json:"license,omitempty"`
	LicenseURI  string `json:"licenseUri,omitempty"`
	TextDomain  string `json:"textDomain,omitempty"`
	RequiresWP  string `json:"requiresWp,omitempty"`
	RequiresPHP string `json:"requiresPhp,omitempty"`
}

type headerField struct {
	pattern *regexp.Regexp
	set     func(*Headers, string)
}

func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?mi)^[ \t/*#@]*` + regexp.QuoteMeta(name) + `:(.*)$`)
}

var headerFields = []headerField{
	{fieldPattern("Plugin Name"), func(h *Headers, v string) { h.Name = v }},
	{fieldPattern("Plugin URI"), func(h *Headers, v string) { h.PluginURI = v }},
	{fieldPattern("Version"), func(h *Headers, v string) { h.Version = v }},
	{fieldPattern("Description"), func(h *Headers, v string) { h.Description = v }},
	{fieldPattern("Author"), func(h *Headers, v string) { h.Author = v }},
	{fieldPattern("Author URI"), func(h *Headers, v string) { h.AuthorURI = v }},
	{fieldPattern("License"), func(h *Headers, v string) { h.License = v }},
	{fieldPattern("License URI"), func(h *Headers, v string) { h.LicenseURI = v }},
	{fieldPattern("Text Domain"), func(h *Headers, v string) { h.TextDomain = v }},
	{fieldPattern("Requires at least"), func(h *Headers, v string) { h.RequiresWP = v }},
	{fieldPattern("Requires PHP"), func(h *Headers, v string) { h.RequiresPHP = v }},
}

var closingComment = regexp.MustCompile(`\s*(?:\*/|\?>).*`)

// ParseHeaders extracts the header block from the start of a main file.
func ParseHeaders(content string) Headers {
	if len(content) > headerReadLimit {
		content = content[:headerReadLimit]
	}
	content = strings.ReplaceAll(content, "\r", "\n")

	var h Headers
	for _, f := range headerFields {
		m := f.pattern.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		f.set(&h, strings.TrimSpace(closingComment.ReplaceAllString(m[1], "")))
	}
	return h
}

// ReadHeaders parses the header block of the file at path.
func ReadHeaders(path string) (Headers, error) {
	f, err := os.Open(path)
	if err != nil {
		return Headers{}, err
	}
	defer f.Close() //nolint:errcheck

	buf, err := io.ReadAll(io.LimitReader(f, headerReadLimit))
	if err != nil {
		return Headers{}, err
	}
	return ParseHeaders(string(buf)), nil
}
