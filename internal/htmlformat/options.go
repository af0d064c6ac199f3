package htmlformat

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/grantcarthew/htmlfmt/internal/kinds"
)

// Options configures a formatting run.
type Options struct {
	Indent       int          `json:"indent" validate:"gte=0"`       // Columns per nesting level
	Tabs         bool         `json:"tabs"`                          // Indent with one tab per level
	SpacesPerTab int          `json:"spacesPerTab" validate:"gte=1"` // Tab width when re-margining embedded content
	Formatting   bool         `json:"formatting"`                    // false produces a compact bundle
	Comments     bool         `json:"comments"`                      // false drops comments
	Styles       bool         `json:"styles"`                        // Lay out <style> bodies as CSS
	Kinds        *kinds.Kinds `json:"-" validate:"-"`                // nil uses kinds.Default()
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Indent:       2,
		SpacesPerTab: 4,
		Formatting:   true,
		Comments:     true,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate reports the first invalid field with a descriptive error.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid options: %w", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "gte":
		return fmt.Errorf("invalid options: %s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Errorf("invalid options: %s failed %q check, got %v", fe.Field(), fe.Tag(), fe.Value())
	}
}

// unit is the indentation for one nesting level.
func (o Options) unit() string {
	if o.Tabs {
		return "\t"
	}
	return strings.Repeat(" ", o.Indent)
}

func (o Options) kinds() *kinds.Kinds {
	if o.Kinds == nil {
		return kinds.Default()
	}
	return o.Kinds
}
