package web

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/sig-gestion/internal/model"
)

var alphaNumRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// validate checks each field against a rule string of the form
// "required|min:3|alpha_num" and collects one message per failing field.
// Returns nil when everything passes.
func validate(data map[string]string, rules map[string]string) *model.ValidationError {
	fields := make(map[string]string)

	for field, ruleExpr := range rules {
		value := data[field]

		for _, rule := range strings.Split(ruleExpr, "|") {
			name, arg, _ := strings.Cut(rule, ":")

			var msg string
			switch name {
			case "required":
				if strings.TrimSpace(value) == "" {
					msg = fmt.Sprintf("El campo %s es requerido.", field)
				}
			case "min":
				n, err := strconv.Atoi(arg)
				if err == nil && value != "" && len(value) < n {
					msg = fmt.Sprintf("El campo %s debe tener al menos %d caracteres.", field, n)
				}
			case "alpha_num":
				if value != "" && !alphaNumRe.MatchString(value) {
					msg = fmt.Sprintf("El campo %s solo admite letras, números, guion y guion bajo.", field)
				}
			}

			if msg != "" {
				fields[field] = msg
				break
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return &model.ValidationError{Fields: fields}
}
