package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const roomNameRule = "required,max=32"

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("label", func(fl validator.FieldLevel) bool {
		return isSafeLabel(fl.Field().String())
	})
	return validate
}

// isSafeLabel rejects blank nicknames and room names and any carrying control characters.
func isSafeLabel(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, r := range text {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// decodePayload unmarshals an event body and validates it against its struct tags.
func (s *Server) decodePayload(data json.RawMessage, dest any) error {
	if len(data) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := s.validate.Struct(dest); err != nil {
		return errors.New(describeValidation(err))
	}
	return nil
}

// decodeRoomName reads the bare string payload of clear-screen, change-turn and update-score.
func (s *Server) decodeRoomName(data json.RawMessage) (string, error) {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return "", fmt.Errorf("decode room name: %w", err)
	}
	if err := s.validate.Var(name, roomNameRule); err != nil {
		return "", errors.New(describeValidation(err))
	}
	return name, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, verr := range verrs {
		field := verr.Field()
		if field == "" {
			field = "value"
		}
		if verr.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, verr.Tag(), verr.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", field, verr.Tag()))
	}
	return strings.Join(parts, "; ")
}
