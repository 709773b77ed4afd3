package premise

import (
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

var checkTypes = map[string]func() Check{
	"isnull":            func() Check { return &IsNullCheck{} },
	"distinct":          func() Check { return &DistinctCheck{} },
	"arithmetic":        func() Check { return &ArithmeticCheck{} },
	"between":           func() Check { return &BetweenCheck{} },
	"inarray":           func() Check { return &InArrayCheck{} },
	"likepattern":       func() Check { return &LikePatternCheck{} },
	"regexpcontains":    func() Check { return &RegexpContainsCheck{} },
	"logicalcomparison": func() Check { return &LogicalComparisonCheck{} },
}

// CheckTypes lists the accepted check type names.
func CheckTypes() []string {
	out := make([]string, 0, len(checkTypes))
	for _, newCheck := range checkTypes {
		out = append(out, newCheck().Type())
	}
	sort.Strings(out)
	return out
}

// ParseCheck builds and validates a check from its type name and parameters, as
// written in configuration files. Type names are matched case-insensitively and may use
// underscores or dashes ("in_array", "regexp-contains").
func ParseCheck(checkType string, params map[string]interface{}) (Check, error) {
	key := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(checkType))
	newCheck, ok := checkTypes[key]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeValidation, "unknown check type %q", checkType).
			WithDetail("supported", CheckTypes())
	}

	target := newCheck()
	if len(params) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:     "json",
			Result:      target,
			ErrorUnused: true,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "create check decoder")
		}
		if err := decoder.Decode(params); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "decode check parameters").
				WithDetail("check", checkType)
		}
	}

	var check Check
	switch c := target.(type) {
	case *IsNullCheck:
		check = *c
	case *DistinctCheck:
		check = *c
	case *ArithmeticCheck:
		check = *c
	case *BetweenCheck:
		check = *c
	case *InArrayCheck:
		check = *c
	case *LikePatternCheck:
		check = *c
	case *RegexpContainsCheck:
		check = *c
	case *LogicalComparisonCheck:
		check = *c
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "unhandled check %T", c)
	}

	if err := validateCheck(check); err != nil {
		return nil, err
	}
	return check, nil
}
