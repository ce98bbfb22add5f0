package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/dump-practice-service/internal/importer"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct tag validation with question authoring rules
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and returns them as ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("share_permission", validateSharePermission)
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("merge_policy", validateMergePolicy)
	validate.RegisterValidation("option_key", validateOptionKey)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).Valid()
}

func validateSharePermission(fl validator.FieldLevel) bool {
	validPermissions := []models.SharePermission{
		models.PermissionRead,
		models.PermissionEdit,
	}

	value := fl.Field().String()
	for _, p := range validPermissions {
		if string(p) == value {
			return true
		}
	}
	return false
}

func validateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleUser,
		models.RoleAdmin,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

// validateMergePolicy accepts an empty value, which means detect
func validateMergePolicy(fl validator.FieldLevel) bool {
	_, err := importer.ParsePolicy(fl.Field().String())
	return err == nil
}

func validateOptionKey(fl validator.FieldLevel) bool {
	value := strings.ToUpper(fl.Field().String())
	for _, key := range models.OptionKeys {
		if key == value {
			return true
		}
	}
	return false
}
