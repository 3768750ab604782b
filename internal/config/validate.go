package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Validate checks the structural validity of a Config. It returns a
// joined error describing every violation found, or nil.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateAI(&cfg.AI)...)
	errs = append(errs, validateReply(&cfg.Reply)...)

	if cfg.Reload.PollInterval < 0 {
		errs = append(errs, errors.New("config: reload.poll_interval must not be negative"))
	}

	return errors.Join(errs...)
}

func validateAI(ai *AIConfig) []error {
	var errs []error

	if ai.Provider != ProviderLocal && ai.Provider != ProviderHosted {
		errs = append(errs, fmt.Errorf("config: ai.provider must be %q or %q, got %q",
			ProviderLocal, ProviderHosted, ai.Provider))
	}

	if ai.RequestTimeout < time.Second {
		errs = append(errs, fmt.Errorf("config: ai.request_timeout must be at least 1s, got %s", ai.RequestTimeout))
	}
	if ai.MaxContextMessages < 1 {
		errs = append(errs, fmt.Errorf("config: ai.max_context_messages must be at least 1, got %d", ai.MaxContextMessages))
	}
	if ai.Temperature < 0 || ai.Temperature > 2 {
		errs = append(errs, fmt.Errorf("config: ai.temperature must be in [0,2], got %g", ai.Temperature))
	}
	if ai.MaxTokens < 0 {
		errs = append(errs, errors.New("config: ai.max_tokens must not be negative"))
	}

	if ai.Local.Port != 0 && (ai.Local.Port < 1 || ai.Local.Port > 65535) {
		errs = append(errs, fmt.Errorf("config: ai.local.port must be in [1,65535], got %d", ai.Local.Port))
	}

	if ai.Backoff.BaseDelay <= 0 {
		errs = append(errs, errors.New("config: ai.backoff.base_delay must be positive"))
	}
	if ai.Backoff.MaxDelay < ai.Backoff.BaseDelay {
		errs = append(errs, errors.New("config: ai.backoff.max_delay must not be less than base_delay"))
	}
	if ai.Backoff.MaxErrors < 1 {
		errs = append(errs, errors.New("config: ai.backoff.max_errors must be at least 1"))
	}
	if ai.Backoff.RecoveryTime < 0 {
		errs = append(errs, errors.New("config: ai.backoff.recovery_time must not be negative"))
	}

	return errs
}

func validateReply(r *ReplyConfig) []error {
	var errs []error

	if r.RandomSkipProbability < 0 || r.RandomSkipProbability > 1 {
		errs = append(errs, fmt.Errorf("config: reply.random_skip_probability must be in [0,1], got %g",
			r.RandomSkipProbability))
	}
	if r.MaxReplyLength < 0 {
		errs = append(errs, errors.New("config: reply.max_reply_length must not be negative"))
	}
	if r.MaxRepliesPerMinute < 0 || r.MaxRepliesPerHour < 0 {
		errs = append(errs, errors.New("config: reply rate limits must not be negative"))
	}

	for i, rule := range r.Rules {
		if rule.Match == "" {
			errs = append(errs, fmt.Errorf("config: reply.rules[%d]: match is required", i))
		}
		if rule.Reply == "" {
			errs = append(errs, fmt.Errorf("config: reply.rules[%d]: reply is required", i))
		}
		if rule.Regex {
			if _, err := regexp.Compile(rule.Match); err != nil {
				errs = append(errs, fmt.Errorf("config: reply.rules[%d]: invalid regex: %w", i, err))
			}
		}
	}

	return errs
}
