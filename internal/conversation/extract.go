package conversation

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// extractionBlock is the typed form of the JSON payload the model appends
// to info-gathering replies.
type extractionBlock struct {
	Extracted    map[string]any `mapstructure:"extracted"`
	AllCollected bool           `mapstructure:"all_collected"`
}

// mergeExtraction folds an extracted payload into the profile under the
// first-write-wins rule and reports whether the model declared collection
// finished. A payload without the "extracted" key is ignored entirely.
func (e *Engine) mergeExtraction(payload map[string]any) bool {
	var block extractionBlock
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &block,
		WeaklyTypedInput: true,
	})
	if err != nil || decoder.Decode(payload) != nil {
		return false
	}

	if block.Extracted == nil {
		return false
	}

	for name, value := range block.Extracted {
		str := extractedValue(value)
		if str == "" {
			continue
		}
		if e.profile.Set(Field(name), str) {
			e.logger.Debug("profile field extracted", zap.String("field", name))
		}
	}

	return block.AllCollected
}

// extractedValue normalizes a single extracted field value. Nulls, the
// literal string "null" and empty values all mean "nothing extracted".
func extractedValue(v any) string {
	if v == nil {
		return ""
	}

	var str string
	switch val := v.(type) {
	case string:
		str = val
	case bool:
		return ""
	case map[string]any, []any:
		return ""
	default:
		str = fmt.Sprintf("%v", val)
	}

	str = strings.TrimSpace(str)
	if strings.EqualFold(str, "null") {
		return ""
	}
	return str
}
