// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016 Datadog, Inc.

package stats

import "strings"

// TrimURLPath collapses a URL path to its first depth segments, dropping
// any query string and marking truncation with a trailing "/*", so that
// high-cardinality path segments (ids, uuids) don't each become their own
// histogram entry. depth <= 0 disables trimming.
func TrimURLPath(url string, depth int) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	if depth <= 0 {
		return url
	}

	trimmed := strings.TrimPrefix(url, "/")
	segments := strings.Split(trimmed, "/")
	if len(segments) <= depth {
		return "/" + strings.Join(segments, "/")
	}
	return "/" + strings.Join(segments[:depth], "/") + "/*"
}

// FormattedURL applies TrimURLPath and, when methodPrefix is set, prefixes
// the result with the HTTP method, giving the key under which a URL stat
// entry is bucketed.
func FormattedURL(url, method string, depth int, methodPrefix bool) string {
	p := TrimURLPath(url, depth)
	if methodPrefix && method != "" {
		return method + " " + p
	}
	return p
}
