// Package sanitize cleans tweet text before it is embedded.
package sanitize

import "regexp"

// urlPattern matches URL-shaped substrings. Links in tweets carry no
// semantic content (they are mostly t.co redirects) and only add noise
// to the vector space.
var urlPattern = regexp.MustCompile(`https?://\S+`)

// StripURLs removes every URL-shaped substring from s. All other
// characters, including emoji and punctuation, are left untouched.
func StripURLs(s string) string {
	return urlPattern.ReplaceAllString(s, "")
}
