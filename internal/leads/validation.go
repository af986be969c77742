package leads

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// Field names as they appear in form values, JSON payloads and error maps.
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldTelegram   = "telegram"
	FieldMessage    = "message"
	FieldSiteType   = "siteType"
	FieldGoal       = "goal"
	FieldTimeline   = "timeline"
	FieldBudget     = "budget"
	FieldReferences = "references"
	FieldComment    = "comment"
)

// MaxFreeText caps message, comment and references.
const MaxFreeText = 2000

var (
	namePattern     = regexp.MustCompile(`^[A-Za-z\x{0400}-\x{04FF} '-]+$`)
	phonePattern    = regexp.MustCompile(`^[0-9 +\-()]+$`)
	telegramPattern = regexp.MustCompile(`^@?[A-Za-z][A-Za-z0-9_]{4,31}$`)
)

// FieldErrors maps a field name to a message that can be shown next to the input.
type FieldErrors map[string]string

// ValidationResult is either parsed data or per-field errors, never both.
type ValidationResult struct {
	Data      *Fields
	PhoneE164 string
	Errors    FieldErrors
}

// OK reports whether validation succeeded.
func (r ValidationResult) OK() bool {
	return r.Data != nil && len(r.Errors) == 0
}

type quickForm struct {
	Name     string `json:"name" validate:"required,min=2,max=50,person_name"`
	Phone    string `json:"phone" validate:"omitempty,loose_phone"`
	Email    string `json:"email" validate:"omitempty,min=5,max=100,email"`
	Telegram string `json:"telegram" validate:"omitempty,tg_handle"`
	Message  string `json:"message" validate:"omitempty,max=2000"`
}

type briefForm struct {
	Name       string `json:"name" validate:"required,min=2,max=50,person_name"`
	Phone      string `json:"phone" validate:"required,loose_phone"`
	Email      string `json:"email" validate:"omitempty,min=5,max=100,email"`
	Telegram   string `json:"telegram" validate:"omitempty,tg_handle"`
	SiteType   string `json:"siteType" validate:"required,max=100"`
	Goal       string `json:"goal" validate:"required,max=500"`
	Timeline   string `json:"timeline" validate:"omitempty,max=100"`
	Budget     string `json:"budget" validate:"omitempty,max=100"`
	References string `json:"references" validate:"omitempty,max=2000"`
	Comment    string `json:"comment" validate:"omitempty,max=2000"`
}

type callbackForm struct {
	Name    string `json:"name" validate:"required,min=2,max=50,person_name"`
	Phone   string `json:"phone" validate:"required,loose_phone"`
	Message string `json:"message" validate:"omitempty,max=2000"`
}

// Validator applies the lead schemas. It is safe for concurrent use.
type Validator struct {
	validate      *validator.Validate
	defaultRegion string
}

// NewValidator builds the schemas. defaultRegion is the ISO country used to
// normalize phone numbers written without a country code.
func NewValidator(defaultRegion string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		return ValidName(fl.Field().String())
	})
	_ = v.RegisterValidation("loose_phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("tg_handle", func(fl validator.FieldLevel) bool {
		return ValidTelegram(fl.Field().String())
	})

	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = "US"
	}
	return &Validator{validate: v, defaultRegion: region}
}

var defaultValidator = NewValidator("US")

// Validate runs the schema for t with the default validator.
func Validate(t Type, raw map[string]string) ValidationResult {
	return defaultValidator.Validate(t, raw)
}

// Validate turns raw form values into normalized Fields or field errors.
// Keys that the schema of t does not know are ignored.
func (v *Validator) Validate(t Type, raw map[string]string) ValidationResult {
	get := func(key string) string { return strings.TrimSpace(raw[key]) }

	var (
		target any
		fields Fields
	)
	switch t {
	case TypeQuick:
		f := quickForm{
			Name:     get(FieldName),
			Phone:    get(FieldPhone),
			Email:    get(FieldEmail),
			Telegram: get(FieldTelegram),
			Message:  get(FieldMessage),
		}
		target = &f
		fields = Fields{Name: f.Name, Phone: f.Phone, Email: f.Email, Telegram: f.Telegram, Message: f.Message}
	case TypeBrief:
		f := briefForm{
			Name:       get(FieldName),
			Phone:      get(FieldPhone),
			Email:      get(FieldEmail),
			Telegram:   get(FieldTelegram),
			SiteType:   get(FieldSiteType),
			Goal:       get(FieldGoal),
			Timeline:   get(FieldTimeline),
			Budget:     get(FieldBudget),
			References: get(FieldReferences),
			Comment:    get(FieldComment),
		}
		target = &f
		fields = Fields{
			Name: f.Name, Phone: f.Phone, Email: f.Email, Telegram: f.Telegram,
			SiteType: f.SiteType, Goal: f.Goal, Timeline: f.Timeline, Budget: f.Budget,
			References: f.References, Comment: f.Comment,
		}
	case TypeCallback:
		f := callbackForm{
			Name:    get(FieldName),
			Phone:   get(FieldPhone),
			Message: get(FieldMessage),
		}
		target = &f
		fields = Fields{Name: f.Name, Phone: f.Phone, Message: f.Message}
	default:
		return ValidationResult{Errors: FieldErrors{"type": "Unknown form type"}}
	}

	errs := FieldErrors{}
	if err := v.validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs["form"] = "Could not validate the form"
		}
		for _, fe := range verrs {
			if _, seen := errs[fe.Field()]; !seen {
				errs[fe.Field()] = messageFor(fe)
			}
		}
	}

	// Quick leads need some way to reach the visitor back.
	if t == TypeQuick && fields.Phone == "" && fields.Email == "" {
		if _, seen := errs[FieldPhone]; !seen {
			errs[FieldPhone] = "Enter a phone number or an email"
		}
	}

	if len(errs) > 0 {
		return ValidationResult{Errors: errs}
	}

	if fields.Telegram != "" && !strings.HasPrefix(fields.Telegram, "@") {
		fields.Telegram = "@" + fields.Telegram
	}
	return ValidationResult{Data: &fields, PhoneE164: v.normalizePhone(fields.Phone)}
}

// ValidateField returns the error for one field given the whole form, or "".
// Forms call it on blur so cross-field rules still apply.
func (v *Validator) ValidateField(t Type, field string, raw map[string]string) string {
	res := v.Validate(t, raw)
	return res.Errors[field]
}

// ValidateSubmission checks sub against the schema of its type and returns a
// normalized copy. Attribution and metadata are carried over untouched.
func (v *Validator) ValidateSubmission(sub Submission) (Submission, error) {
	if !sub.Type.Valid() {
		return Submission{}, ErrUnknownType
	}
	res := v.Validate(sub.Type, sub.Values())
	if !res.OK() {
		return Submission{}, &ValidationError{Fields: res.Errors}
	}
	sub.Fields = *res.Data
	sub.PhoneE164 = res.PhoneE164
	return sub, nil
}

func (v *Validator) normalizePhone(phone string) string {
	if phone == "" {
		return ""
	}
	num, err := phonenumbers.Parse(phone, v.defaultRegion)
	if err != nil {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// ValidName reports whether s is 2–50 letters, spaces, hyphens or apostrophes.
func ValidName(s string) bool {
	n := len([]rune(s))
	return n >= 2 && n <= 50 && namePattern.MatchString(s)
}

// ValidPhone accepts digits, spaces, '+', '-' and parentheses with 10–15 digits.
func ValidPhone(s string) bool {
	if !phonePattern.MatchString(s) {
		return false
	}
	n := CountDigits(s)
	return n >= 10 && n <= 15
}

// ValidTelegram reports whether s is a Telegram username with optional '@'.
func ValidTelegram(s string) bool {
	return telegramPattern.MatchString(s)
}

// CountDigits counts the decimal digits in s.
func CountDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		switch field {
		case FieldName:
			return "Enter your name"
		case FieldPhone:
			return "Enter your phone number"
		default:
			return "This field is required"
		}
	case "person_name":
		return "Use letters, spaces, hyphens or apostrophes only"
	case "loose_phone":
		return "Enter a phone number with 10 to 15 digits"
	case "email":
		return "Enter a valid email"
	case "tg_handle":
		return "Enter a Telegram username like @studio_name"
	case "min":
		if field == FieldName {
			return "Name must be at least 2 characters"
		}
		if field == FieldEmail {
			return "Enter a valid email"
		}
		return "Too short"
	case "max":
		if field == FieldName {
			return "Name must be at most 50 characters"
		}
		return "Too long, at most " + fe.Param() + " characters"
	}
	return "Invalid value"
}

