// Atlasaudit - Atlassian Cloud Audit Log Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/atlasaudit

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// singleton validator instance; caches struct metadata across calls.
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that required configuration is present and well-formed.
// Struct tags cover field-level rules; cross-field rules live here.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// ValidateExtraction enforces the fields the extract and peek verbs need
// beyond Validate: the per-product audit endpoints are scoped by cloud id.
func (c *Config) ValidateExtraction() error {
	if c.Atlassian.CloudID == "" {
		return fmt.Errorf("ATLASSIAN_CLOUD_ID is required for extraction")
	}
	return nil
}

// ValidateRebuild enforces the fields the rebuild-actions verb needs: the
// event-action listing is an organization-level endpoint.
func (c *Config) ValidateRebuild() error {
	if c.Atlassian.OrgID == "" {
		return fmt.Errorf("ATLASSIAN_ORG_ID is required to rebuild action metadata")
	}
	return nil
}

// describeFieldError renders a single validator error into a readable message.
func describeFieldError(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %q=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
}
