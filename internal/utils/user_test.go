package utils

import (
	"testing"

	"campuslink/internal/models"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name      string
		user      *models.User
		anonymous bool
		want      string
	}{
		{"normal name", &models.User{FirstName: "Ada", LastName: "Lovelace"}, false, "Ada Lovelace"},
		{"anonymous flag wins", &models.User{FirstName: "Ada", LastName: "Lovelace"}, true, "Anonymous"},
		{"deleted author", nil, false, "Anonymous"},
		{"deleted and anonymous", nil, true, "Anonymous"},
		{"surrounding whitespace", &models.User{FirstName: "  Ada ", LastName: " Lovelace  "}, false, "Ada Lovelace"},
		{"embedded whitespace", &models.User{FirstName: "Ada  Maria", LastName: "Lovelace"}, false, "Ada Maria Lovelace"},
		{"no last name", &models.User{FirstName: "Ada"}, false, "Ada"},
		{"blank names", &models.User{FirstName: "   ", LastName: " "}, false, "Anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.user, tt.anonymous); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
