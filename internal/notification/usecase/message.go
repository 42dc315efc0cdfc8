package usecase

import (
	"strings"

	versiondomain "update-tracker/internal/version/domain"
)

var messageTemplates = map[versiondomain.UpdateUrgency]string{
	versiondomain.UrgencyDeprecated:  "Your app version is no longer supported. Update to {target} immediately.",
	versiondomain.UrgencyMandatory:   "Your app version is outdated. Update to {target} is recommended.",
	versiondomain.UrgencyOptional:    "An optional update to {target} is available.",
	versiondomain.UrgencyUnavailable: "Your version is the latest.",
}

var messageTitles = map[versiondomain.UpdateUrgency]string{
	versiondomain.UrgencyDeprecated:  "Update required",
	versiondomain.UrgencyMandatory:   "Update recommended",
	versiondomain.UrgencyOptional:    "Update available",
	versiondomain.UrgencyUnavailable: "Up to date",
}

// Message renders the user-facing text for an urgency and target version
func Message(urgency versiondomain.UpdateUrgency, target string) string {
	tmpl, ok := messageTemplates[urgency]
	if !ok {
		tmpl = messageTemplates[versiondomain.UrgencyUnavailable]
	}
	return strings.ReplaceAll(tmpl, "{target}", target)
}

func title(urgency versiondomain.UpdateUrgency) string {
	if t, ok := messageTitles[urgency]; ok {
		return t
	}
	return messageTitles[versiondomain.UrgencyUnavailable]
}
