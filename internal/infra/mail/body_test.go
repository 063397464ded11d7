package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
)

func TestBuildCreationBody(t *testing.T) {
	body, err := buildCreationBody(port.CreationNotice{
		FullName:  "Jane Doe",
		FirstName: "Jane",
		LastName:  "Doe",
		OrgUnit:   "Users",
		Login:     "jdoe",
		Domain:    "@example.com",
		ManagerDN: "CN=Boss,OU=Users,DC=x,DC=y",
		Groups:    []string{"CN=Editors,OU=Groups,DC=x,DC=y"},
		Password:  "Str0ng!Passw0rd",
	})
	if err != nil {
		t.Fatalf("buildCreationBody returned error: %v", err)
	}

	for _, want := range []string{"Jane Doe", "jdoe@example.com", "Str0ng!Passw0rd", "Boss"} {
		if !strings.Contains(body, want) {
			t.Fatalf("creation body missing %q", want)
		}
	}
	if !strings.Contains(body, "Not specified") {
		t.Fatalf("empty optional fields must render their placeholder")
	}
}

func TestBuildModificationBodyFallsBackToDN(t *testing.T) {
	body, err := buildModificationBody(port.ModificationNotice{
		DN: "CN=Jane Doe,OU=Users,DC=x,DC=y",
	})
	if err != nil {
		t.Fatalf("buildModificationBody returned error: %v", err)
	}

	if !strings.Contains(body, "Jane Doe") {
		t.Fatalf("expected the CN extracted from the DN, got %q", body)
	}
	if !strings.Contains(body, "Unchanged") {
		t.Fatalf("untouched fields must render as unchanged")
	}
}

func TestBuildScheduledBodyCarriesDate(t *testing.T) {
	at := time.Date(2024, 1, 31, 10, 0, 0, 0, time.Local)
	body, err := buildScheduledBody("Jane Doe", at)
	if err != nil {
		t.Fatalf("buildScheduledBody returned error: %v", err)
	}

	if !strings.Contains(body, "2024-01-31 10:00") {
		t.Fatalf("scheduled body must carry the formatted date, got %q", body)
	}
}

func TestBuildDeletionBodyEscapesName(t *testing.T) {
	body, err := buildDeletionBody("<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("buildDeletionBody returned error: %v", err)
	}

	if strings.Contains(body, "<script>") {
		t.Fatalf("name must be HTML-escaped, got %q", body)
	}
}

func TestLabelsForGroups(t *testing.T) {
	labels := labelsForGroups([]string{
		"CN=RH,OU=DIFFUSION,OU=GROUPS,DC=example,DC=com",
		"CN=Unmapped,OU=Groups,DC=x,DC=y",
	})

	if len(labels) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(labels))
	}
	if labels[0] != "HR distribution list" {
		t.Fatalf("expected mapped label, got %q", labels[0])
	}
	if labels[1] != "CN=Unmapped,OU=Groups,DC=x,DC=y" {
		t.Fatalf("unknown groups must fall back to the DN, got %q", labels[1])
	}
}
