package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/safetravel/groupwatch/pkg/simulation"
)

// EnvPrefix namespaces parameter overrides, e.g. GROUPWATCH_STRAY_USERNAME
const EnvPrefix = "GROUPWATCH_"

// SkipPromptsEnv disables interactive prompts for CI and scripted runs
const SkipPromptsEnv = EnvPrefix + "SKIP_PROMPTS"

// PromptForParameters prompts the user for simulation parameters
func PromptForParameters(params []simulation.Parameter) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for _, param := range params {
		value, err := promptForParameter(param)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", param.Name, err)
		}
		result[param.Name] = value
	}

	return result, nil
}

// EnvKey is the variable that overrides param
func EnvKey(param simulation.Parameter) string {
	return EnvPrefix + strings.ToUpper(param.Name)
}

// ResolveNonInteractive picks a value from the environment or the default.
// ok is false when neither is available.
func ResolveNonInteractive(param simulation.Parameter) (value interface{}, ok bool, err error) {
	if envValue := os.Getenv(EnvKey(param)); envValue != "" {
		v, err := ParseValue(envValue, param)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", EnvKey(param), err)
		}
		return v, true, nil
	}
	if param.Default != nil {
		return param.Default, true, nil
	}
	return nil, false, nil
}

func promptForParameter(param simulation.Parameter) (interface{}, error) {
	if os.Getenv(SkipPromptsEnv) == "true" {
		value, ok, err := ResolveNonInteractive(param)
		if err != nil {
			return nil, err
		}
		if ok {
			return value, nil
		}
		if param.Required {
			return nil, fmt.Errorf("required parameter %s not provided and no default available", param.Name)
		}
		return zeroValue(param), nil
	}

	// An environment value becomes the prompt's default
	if envValue := os.Getenv(EnvKey(param)); envValue != "" {
		if parsed, err := ParseValue(envValue, param); err == nil {
			param.Default = parsed
		}
	}

	switch param.Type {
	case simulation.TypeInteger:
		return promptInteger(param)
	case simulation.TypeFloat:
		return promptFloat(param)
	case simulation.TypeString:
		return promptString(param)
	case simulation.TypeBoolean:
		return promptBoolean(param)
	case simulation.TypeDuration:
		return promptDuration(param)
	default:
		return nil, fmt.Errorf("unsupported parameter type: %s", param.Type)
	}
}

// ParseValue converts text to the parameter's type and checks its bounds
func ParseValue(value string, param simulation.Parameter) (interface{}, error) {
	switch param.Type {
	case simulation.TypeInteger:
		v, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid integer: %w", err)
		}
		return v, checkIntRange(v, param)
	case simulation.TypeFloat:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number: %w", err)
		}
		return v, checkFloatRange(v, param)
	case simulation.TypeString:
		if len(param.Options) > 0 && !contains(param.Options, value) {
			return nil, fmt.Errorf("must be one of: %s", strings.Join(param.Options, ", "))
		}
		return value, nil
	case simulation.TypeBoolean:
		return strconv.ParseBool(value)
	case simulation.TypeDuration:
		duration, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		return duration, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type: %s", param.Type)
	}
}

func promptInteger(param simulation.Parameter) (int, error) {
	prompt := &survey.Input{
		Message: param.Description,
		Default: defaultString(param),
	}

	var result string
	if err := survey.AskOne(prompt, &result, survey.WithValidator(survey.Required)); err != nil {
		return 0, err
	}

	v, err := ParseValue(result, param)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func promptFloat(param simulation.Parameter) (float64, error) {
	prompt := &survey.Input{
		Message: param.Description,
		Default: defaultString(param),
	}

	var result string
	if err := survey.AskOne(prompt, &result, survey.WithValidator(survey.Required)); err != nil {
		return 0, err
	}

	v, err := ParseValue(result, param)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func promptString(param simulation.Parameter) (string, error) {
	defaultStr := defaultString(param)

	if len(param.Options) > 0 {
		prompt := &survey.Select{
			Message: param.Description,
			Options: param.Options,
			Default: defaultStr,
		}

		var result string
		if err := survey.AskOne(prompt, &result); err != nil {
			return "", err
		}
		return result, nil
	}

	prompt := &survey.Input{
		Message: param.Description,
		Default: defaultStr,
	}

	var result string
	var validators []survey.Validator
	if param.Required {
		validators = append(validators, survey.Required)
	}

	if err := survey.AskOne(prompt, &result, survey.WithValidator(survey.ComposeValidators(validators...))); err != nil {
		return "", err
	}

	return strings.TrimSpace(result), nil
}

func promptBoolean(param simulation.Parameter) (bool, error) {
	defaultBool := false
	if param.Default != nil {
		switch v := param.Default.(type) {
		case bool:
			defaultBool = v
		case string:
			defaultBool = v == "true" || v == "yes" || v == "1"
		}
	}

	prompt := &survey.Confirm{
		Message: param.Description,
		Default: defaultBool,
	}

	var result bool
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}

	return result, nil
}

func promptDuration(param simulation.Parameter) (time.Duration, error) {
	prompt := &survey.Input{
		Message: param.Description + " (e.g., 8s, 500ms, 1m)",
		Default: defaultString(param),
	}

	var result string
	if err := survey.AskOne(prompt, &result, survey.WithValidator(func(val interface{}) error {
		if _, err := time.ParseDuration(val.(string)); err != nil {
			return fmt.Errorf("invalid duration format (use formats like 8s, 500ms, 1m)")
		}
		return nil
	})); err != nil {
		return 0, err
	}

	duration, err := time.ParseDuration(result)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

func defaultString(param simulation.Parameter) string {
	switch v := param.Default.(type) {
	case nil:
		return ""
	case float64:
		if param.Type == simulation.TypeInteger {
			return strconv.Itoa(int(v))
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func zeroValue(param simulation.Parameter) interface{} {
	switch param.Type {
	case simulation.TypeInteger:
		return 0
	case simulation.TypeFloat:
		return 0.0
	case simulation.TypeBoolean:
		return false
	case simulation.TypeDuration:
		return time.Duration(0)
	default:
		return ""
	}
}

func checkIntRange(v int, param simulation.Parameter) error {
	if param.Min != nil && v < toInt(param.Min) {
		return fmt.Errorf("value must be at least %d", toInt(param.Min))
	}
	if param.Max != nil && v > toInt(param.Max) {
		return fmt.Errorf("value must be at most %d", toInt(param.Max))
	}
	return nil
}

func checkFloatRange(v float64, param simulation.Parameter) error {
	if param.Min != nil && v < toFloat64(param.Min) {
		return fmt.Errorf("value must be at least %g", toFloat64(param.Min))
	}
	if param.Max != nil && v > toFloat64(param.Max) {
		return fmt.Errorf("value must be at most %g", toFloat64(param.Max))
	}
	return nil
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func toInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	default:
		return 0
	}
}

func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}
