package forms

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/brightpath/enrolform-backend/internal/domain"
)

// The field mapper folds a flat response set into the fixed canonical
// enrollment record. It is pure and total: an absent or empty value is
// simply omitted, and no input can make it fail.

// repeatResponseID matches index-encoded response ids produced for
// repeatable-section instances: prefix_<index>_suffix. A match is only
// honored when the reassembled base id is a declared field of a repeatable
// section; a plain field whose id merely looks index-encoded is never
// regrouped.
var repeatResponseID = regexp.MustCompile(`^(.+)_(\d+)_(.+)$`)

// SplitRepeatResponseID decomposes an index-encoded response id into its
// base field id and instance index. ok is false for plain ids.
func SplitRepeatResponseID(id string) (base string, index int, ok bool) {
	m := repeatResponseID.FindStringSubmatch(id)
	if m == nil {
		return "", 0, false
	}
	index, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1] + "_" + m[3], index, true
}

// MapResponses produces the canonical partial record plus the free-form
// custom data bag for a response set against its pinned form version.
func MapResponses(config *domain.FormConfig, responses map[string]any) *domain.CanonicalRecord {
	record := map[string]any{}
	custom := map[string]any{}

	for si := range config.Sections {
		section := &config.Sections[si]
		if section.Repeatable {
			mapRepeatableSection(section, responses, record, custom)
			continue
		}
		for fi := range section.Fields {
			field := &section.Fields[fi]
			value, present := responses[field.ID]
			if !present || ValueEmpty(value) {
				continue
			}
			writeField(field, field.MappedField, field.CustomDataKey, value, record, custom)
		}
	}

	out := &domain.CanonicalRecord{Record: record}
	if len(custom) > 0 {
		out.CustomData = custom
	}
	return out
}

// ExtractCustomData runs only the unmapped-field half of the mapping; the
// submission processor keeps the custom data bag current on every save.
func ExtractCustomData(config *domain.FormConfig, responses map[string]any) map[string]any {
	full := MapResponses(config, responses)
	if full.CustomData == nil {
		return map[string]any{}
	}
	return full.CustomData
}

func mapRepeatableSection(section *domain.FormSection, responses map[string]any, record, custom map[string]any) {
	members := make(map[string]*domain.FormField, len(section.Fields))
	for fi := range section.Fields {
		members[section.Fields[fi].ID] = &section.Fields[fi]
	}

	// group responses into per-instance value sets keyed by encoded index
	instances := map[int]map[string]any{}
	for id, value := range responses {
		base, index, ok := SplitRepeatResponseID(id)
		if !ok {
			continue
		}
		if _, member := members[base]; !member {
			continue
		}
		if ValueEmpty(value) {
			continue
		}
		if instances[index] == nil {
			instances[index] = map[string]any{}
		}
		instances[index][base] = value
	}
	if len(instances) == 0 {
		return
	}

	// ascending numeric index, then compact into ordinal array slots
	indexes := make([]int, 0, len(instances))
	for idx := range instances {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	for ordinal, idx := range indexes {
		values := instances[idx]
		for fi := range section.Fields {
			field := &section.Fields[fi]
			value, present := values[field.ID]
			if !present {
				continue
			}
			mapped := bindWildcard(field.MappedField, ordinal)
			customKey := bindWildcard(field.CustomDataKey, ordinal)
			writeField(field, mapped, customKey, value, record, custom)
		}
	}
}

// bindWildcard substitutes the [] placeholder with a concrete instance
// index. A repeatable path with no wildcard gets the index appended so
// instances still land in distinct array slots.
func bindWildcard(path string, index int) string {
	if path == "" {
		return ""
	}
	idx := strconv.Itoa(index)
	if strings.Contains(path, "[]") {
		return strings.Replace(path, "[]", "["+idx+"]", 1)
	}
	return path + "[" + idx + "]"
}

func writeField(field *domain.FormField, mappedPath, customKey string, value any, record, custom map[string]any) {
	switch {
	case mappedPath != "":
		SetPath(record, mappedPath, value)
	case customKey != "":
		SetPath(custom, customKey, value)
	}
}

var arraySegment = regexp.MustCompile(`^([A-Za-z0-9_]+)\[(\d*)\]$`)

// SetPath materializes the dotted/indexed path inside target and writes
// value at the leaf. A segment name[idx] materializes or reuses an array at
// name and descends into element idx (0 when omitted); a plain segment
// materializes or reuses a nested object. Malformed segments drop the write
// rather than erroring: mapping is total.
func SetPath(target map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := target
	for i, segment := range segments {
		last := i == len(segments)-1

		name := segment
		arrayIndex := -1
		if m := arraySegment.FindStringSubmatch(segment); m != nil {
			name = m[1]
			arrayIndex = 0
			if m[2] != "" {
				arrayIndex, _ = strconv.Atoi(m[2])
			}
		}
		if name == "" {
			return
		}

		if arrayIndex < 0 {
			if last {
				current[name] = value
				return
			}
			next, ok := current[name].(map[string]any)
			if !ok {
				next = map[string]any{}
				current[name] = next
			}
			current = next
			continue
		}

		arr, _ := current[name].([]any)
		for len(arr) <= arrayIndex {
			arr = append(arr, nil)
		}
		current[name] = arr
		if last {
			arr[arrayIndex] = value
			return
		}
		element, ok := arr[arrayIndex].(map[string]any)
		if !ok {
			element = map[string]any{}
			arr[arrayIndex] = element
		}
		current = element
	}
}

// GetPath reads a dotted/indexed path out of a record produced by SetPath.
// Missing steps read as nil.
func GetPath(target map[string]any, path string) any {
	var current any = target
	for _, segment := range strings.Split(path, ".") {
		name := segment
		arrayIndex := -1
		if m := arraySegment.FindStringSubmatch(segment); m != nil {
			name = m[1]
			arrayIndex = 0
			if m[2] != "" {
				arrayIndex, _ = strconv.Atoi(m[2])
			}
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[name]
		if arrayIndex >= 0 {
			arr, ok := current.([]any)
			if !ok || arrayIndex >= len(arr) {
				return nil
			}
			current = arr[arrayIndex]
		}
	}
	return current
}
