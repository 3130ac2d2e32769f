package utils

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// assetPathRegex matches asset paths such as assets/123 or assets/123/versions/2
var assetPathRegex = regexp.MustCompile(`^assets/(\d+)(?:/versions/\d+)?/?$`)

// operationPathRegex matches operations/<token>
var operationPathRegex = regexp.MustCompile(`^operations/([A-Za-z0-9_\-]+)$`)

type locationKind int

const (
	directField locationKind = iota
	nestedField
	nestedPath
	topLevelPath
)

// idLocation is one place where the platform has been seen to put the asset id
type idLocation struct {
	kind      locationKind
	container string
}

// idLocations is evaluated in order; the first match wins
var idLocations = []idLocation{
	{kind: directField},
	{kind: nestedField, container: "response"},
	{kind: nestedPath, container: "response"},
	{kind: nestedField, container: "result"},
	{kind: nestedPath, container: "result"},
	{kind: nestedField, container: "metadata"},
	{kind: nestedPath, container: "metadata"},
	{kind: topLevelPath},
}

// DecodeObject decodes a JSON object keeping numbers as json.Number.
// Returns nil for anything that is not an object.
func DecodeObject(body []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil
	}
	return obj
}

// ExtractAssetID finds the asset id in a response body.
// Returns false when no known shape matches; that is not an error.
func ExtractAssetID(body []byte) (string, bool) {
	return ExtractAssetIDFromObject(DecodeObject(body))
}

// ExtractAssetIDFromObject is ExtractAssetID for an already decoded object
func ExtractAssetIDFromObject(obj map[string]any) (string, bool) {
	if obj == nil {
		return "", false
	}
	for _, loc := range idLocations {
		if id, ok := loc.lookup(obj); ok {
			return id, true
		}
	}
	return "", false
}

func (l idLocation) lookup(obj map[string]any) (string, bool) {
	switch l.kind {
	case directField:
		return idField(obj)
	case nestedField:
		if inner, ok := obj[l.container].(map[string]any); ok {
			return idField(inner)
		}
	case nestedPath:
		if inner, ok := obj[l.container].(map[string]any); ok {
			return idFromPath(inner["path"])
		}
	case topLevelPath:
		return idFromPath(obj["path"])
	}
	return "", false
}

// idField checks assetId / asset_id / assetID, matching keys case-insensitively
func idField(obj map[string]any) (string, bool) {
	for key, value := range obj {
		switch strings.ToLower(key) {
		case "assetid", "asset_id":
			if id, ok := NormalizeAssetID(value); ok {
				return id, true
			}
		}
	}
	return "", false
}

func idFromPath(value any) (string, bool) {
	path, ok := value.(string)
	if !ok {
		return "", false
	}
	matches := assetPathRegex.FindStringSubmatch(strings.TrimSpace(path))
	if len(matches) != 2 {
		return "", false
	}
	return matches[1], true
}

// NormalizeAssetID accepts an integer or a numeric string and returns its decimal form
func NormalizeAssetID(value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
	case float64:
		if v <= 0 || v != float64(int64(v)) {
			return "", false
		}
		s = strconv.FormatInt(int64(v), 10)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return "", false
	}
	if !IsNumericID(s) {
		return "", false
	}
	return s, true
}

// ExtractOperationID returns the operation handle from an upload response, if any
func ExtractOperationID(obj map[string]any) (string, bool) {
	if obj == nil {
		return "", false
	}
	for key, value := range obj {
		switch strings.ToLower(key) {
		case "operationid", "operation_id":
			if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
	}
	if path, ok := obj["path"].(string); ok {
		if matches := operationPathRegex.FindStringSubmatch(strings.TrimSpace(path)); len(matches) == 2 {
			return matches[1], true
		}
	}
	return "", false
}

// PathMatchesAsset reports whether a metadata path addresses the given asset id
func PathMatchesAsset(path, assetID string) bool {
	prefix := "assets/" + assetID
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/'
}

// IsNumericID reports whether s is a non-empty run of decimal digits
func IsNumericID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
