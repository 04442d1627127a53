package storage

import "strings"

const progressKeyPrefix = "progress:"

// progressKey is the pebble key of one read marker.
func progressKey(userID, entryKey string) []byte {
	return []byte(progressKeyPrefix + userID + ":" + entryKey)
}

// progressBounds returns the [lower, upper) range holding every marker of
// userID. ';' is the byte after ':'.
func progressBounds(userID string) (lower, upper []byte) {
	p := progressKeyPrefix + userID
	return []byte(p + ":"), []byte(p + ";")
}

// entryKeyFrom strips the user prefix from a pebble key.
func entryKeyFrom(userID string, key []byte) (string, bool) {
	prefix := progressKeyPrefix + userID + ":"
	s := string(key)
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
