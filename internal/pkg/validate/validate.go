package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

// messages maps "Struct.Field:tag" to the message shown to visitors.
// Anything not listed falls back to the generic field/tag description.
var messages = map[string]string{
	"SubscribeRequest.Phone:required": "Phone number is required",
	"SubscribeRequest.Phone:min":      "Phone number too short",
	"SubscribeRequest.Name:required":  "Name is required",
	"SubscribeRequest.Name:min":       "Name is required",
	"SubscribeRequest.Name:max":       "Name too long",
	"NotifyRequest.PostID:required":   "postId is required",
	"NotifyRequest.Title:required":    "title is required",
	"NotifyRequest.URL:url":           "url must be a valid URL",
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error string or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, message(fe))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// First validates s and returns only the first failure, matching what the
// subscribe form shows inline.
func First(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok || len(ve) == 0 {
			return err
		}
		return fmt.Errorf("%s", message(ve[0]))
	}
	return nil
}

func message(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	if i := strings.LastIndex(ns, "."); i >= 0 {
		if j := strings.LastIndex(ns[:i], "."); j >= 0 {
			ns = ns[j+1:]
		}
	}
	if m, ok := messages[ns+":"+fe.Tag()]; ok {
		return m
	}
	return fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag())
}
