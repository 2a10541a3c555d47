// Package layout derives destination keys for downloaded variants and
// parses them back.
//
// A variant of an archived URL is stored under a key built from the URL
// path plus a role suffix: "-<role>" inserted right before the
// extension, where role is a 14-digit capture timestamp or the literal
// "current". ExtractBaseAndRole is the exact inverse for keys built
// here, and also parses the same convention when it is only available
// on disk (files left by an earlier run).
package layout

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// suffixRe matches "<name>-<role>[.ext]" where role is "current" or
// exactly 14 digits. The name group is lazy so the role match anchors
// on the last suffix-shaped fragment.
var suffixRe = regexp.MustCompile(`^(.*?)-((?:current)|(?:\d{14}))(\.\w+)?$`)

// Resolve derives the destination key for one variant of a URL.
//
// With structured set, the URL's directory hierarchy is mirrored under
// root; otherwise the path collapses into a single flat filename with
// "/" replaced by "_". The role suffix always sits between the name and
// the extension.
func Resolve(originalURL, root string, structured bool, role string) string {
	urlPath := urlPath(originalURL)
	name, ext := splitExt(urlPath)
	suffix := "-" + role

	if structured {
		dir := path.Dir(urlPath)
		return path.Join(root, dir, path.Base(name)+suffix+ext)
	}

	flat := strings.ReplaceAll(name, "/", "_")
	return path.Join(root, flat+suffix+ext)
}

// Base derives the suffix-free form of the keys Resolve builds for the
// same URL. It is what duplicate variants of one URL group under.
func Base(originalURL, root string, structured bool) string {
	urlPath := urlPath(originalURL)
	name, ext := splitExt(urlPath)

	if structured {
		dir := path.Dir(urlPath)
		return path.Join(root, dir, path.Base(name)+ext)
	}

	flat := strings.ReplaceAll(name, "/", "_")
	return path.Join(root, flat+ext)
}

// ExtractBaseAndRole splits a key produced by Resolve back into its
// suffix-free base and the role. Keys that do not carry a role suffix
// come back unchanged with an empty role.
func ExtractBaseAndRole(key string) (string, string) {
	dir := path.Dir(key)
	file := path.Base(key)

	m := suffixRe.FindStringSubmatch(file)
	if m == nil {
		return key, ""
	}

	name, role, ext := m[1], m[2], m[3]
	if name == "" && ext == "" {
		return dir, role
	}
	return path.Join(dir, name+ext), role
}

func urlPath(originalURL string) string {
	u, err := url.Parse(originalURL)
	if err != nil {
		return strings.TrimPrefix(originalURL, "/")
	}
	return strings.TrimPrefix(u.Path, "/")
}

func splitExt(p string) (string, string) {
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext), ext
}
