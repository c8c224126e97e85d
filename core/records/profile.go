package records

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// AssessmentProfile is the typed view of an assessment report.
type AssessmentProfile struct {
	Name     string `mapstructure:"Имя"`
	Request  string `mapstructure:"Запрос"`
	Deadline string `mapstructure:"Сроки"`
	Budget   string `mapstructure:"Бюджет"`
	Contact  string `mapstructure:"Контакт"`
	// Extra holds keys outside the known set.
	Extra map[string]string `mapstructure:",remain"`
}

// DecodeProfile maps a report onto AssessmentProfile.
func DecodeProfile(report map[string]string) (AssessmentProfile, error) {
	var p AssessmentProfile
	if err := mapstructure.Decode(report, &p); err != nil {
		return AssessmentProfile{}, fmt.Errorf("records: decode profile: %w", err)
	}
	return p, nil
}
