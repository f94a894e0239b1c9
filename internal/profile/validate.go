package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/py-react/cloud-ops-sub002/internal/entity"
	"k8s.io/apimachinery/pkg/api/resource"
	k8svalidation "k8s.io/apimachinery/pkg/util/validation"
)

var validate *validator.Validate

var envNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("quantity", func(fl validator.FieldLevel) bool {
		_, err := resource.ParseQuantity(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("labelkey", func(fl validator.FieldLevel) bool {
		return len(k8svalidation.IsQualifiedName(fl.Field().String())) == 0
	})
	_ = validate.RegisterValidation("labelvalue", func(fl validator.FieldLevel) bool {
		return len(k8svalidation.IsValidLabelValue(fl.Field().String())) == 0
	})
	_ = validate.RegisterValidation("envname", func(fl validator.FieldLevel) bool {
		return envNameRe.MatchString(fl.Field().String())
	})
}

// Struct validates any struct carrying validate tags and reports the first
// failure as a ValidationError rooted at prefix.
func Struct(prefix string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return entity.Invalid(prefix, "%v", err)
	}
	fe := verrs[0]
	return entity.Invalid(joinPath(prefix, fieldPath(fe.Namespace())), "failed %q validation", fe.Tag())
}

// Decode parses and validates a raw profile document against the schema of
// the given type. Unknown fields are rejected.
func Decode(t entity.ProfileType, raw map[string]any) (Config, error) {
	cfg, ok := New(t)
	if !ok {
		return nil, entity.Invalid("type", "unknown profile type %q", t)
	}
	if raw == nil {
		return nil, entity.Invalid("config", "is required")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, entity.Invalid("config", "not a JSON document: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, decodeError(err)
	}
	if err := Struct("config", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return entity.Invalid(joinPath("config", typeErr.Field), "expected %s", typeErr.Type)
	}
	// encoding/json reports unknown fields only as text
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return entity.Invalid(joinPath("config", strings.Trim(field, `"`)), "unknown field")
	}
	return entity.Invalid("config", "%v", err)
}

// fieldPath drops the struct name validator puts in front of the namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ""
}

func joinPath(prefix, path string) string {
	switch {
	case path == "":
		return prefix
	case prefix == "":
		return path
	}
	return prefix + "." + path
}
