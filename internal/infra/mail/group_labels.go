package mail

// groupLabels maps group DNs to the human-readable labels shown in
// notification mail. Unknown DNs fall back to the raw DN. Adjust to match the
// real directory tree of the deployment.
var groupLabels = map[string]string{
	"CN=RH,OU=DIFFUSION,OU=GROUPS,DC=example,DC=com":           "HR distribution list",
	"CN=IT,OU=DIFFUSION,OU=GROUPS,DC=example,DC=com":           "IT distribution list",
	"CN=COMM,OU=DIFFUSION,OU=GROUPS,DC=example,DC=com":         "Communication distribution list",
	"CN=_APP_A,OU=APPLICATIONS,OU=GROUPS,DC=example,DC=com":    "Application A",
	"CN=_APP_B,OU=APPLICATIONS,OU=GROUPS,DC=example,DC=com":    "Application B",
	"CN=_APP_C,OU=APPLICATIONS,OU=GROUPS,DC=example,DC=com":    "Application C",
}

// labelsForGroups converts a list of group DNs to display labels, keeping the
// DN itself when no label is known.
func labelsForGroups(dns []string) []string {
	labels := make([]string, 0, len(dns))
	for _, dn := range dns {
		if label, ok := groupLabels[dn]; ok {
			labels = append(labels, label)
			continue
		}
		labels = append(labels, dn)
	}
	return labels
}
