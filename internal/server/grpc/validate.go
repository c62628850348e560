package grpc

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/go-playground/validator/v10"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	passwordMinLen = 8
	passwordMaxLen = 20
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("password", validPassword)
	_ = v.RegisterValidation("gender", validGender)
	return v
}

// jsonFieldName reports fields by their wire name.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// validPassword requires 8 to 20 characters with at least one letter and one
// digit.
func validPassword(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	n := len([]rune(p))
	if n < passwordMinLen || n > passwordMaxLen {
		return false
	}
	var letter, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

func validGender(fl validator.FieldLevel) bool {
	_, ok := models.ParseGender(fl.Field().String())
	return ok
}

// validateRequest runs struct validation and turns failures into
// InvalidArgument with a BadRequest detail per field.
func (s *GRPCServer) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	br := &errdetails.BadRequest{}
	for _, fe := range verrs {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       fe.Field(),
			Description: "failed on " + fe.Tag(),
		})
	}

	st := status.New(codes.InvalidArgument, "invalid request: "+verrs[0].Field()+" failed on "+verrs[0].Tag())
	if withDetails, derr := st.WithDetails(br); derr == nil {
		st = withDetails
	}
	return st.Err()
}
