package catalog

import (
	"encoding/json"
	"strings"
)

// ImageRefs is a flat list of image URLs. When decoding it accepts both
// attachment objects ({"url": "..."}) and bare strings, dropping empty entries.
type ImageRefs []string

func (r *ImageRefs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		// null or a non-array value: no images
		*r = ImageRefs{}
		return nil
	}
	out := make(ImageRefs, 0, len(raw))
	for _, item := range raw {
		if u := imageURL(item); strings.TrimSpace(u) != "" {
			out = append(out, u)
		}
	}
	*r = out
	return nil
}

func (r ImageRefs) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(r))
}

// First returns the first URL or "".
func (r ImageRefs) First() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

func imageURL(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}
	var att struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(item, &att); err == nil {
		return att.URL
	}
	return ""
}
