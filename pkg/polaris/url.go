package polaris

import (
	"fmt"
	"strings"
)

// APIHost is the service domain appended to the org/region/cloud host prefix.
const APIHost = "api.imply.io"

const (
	EndpointSamplingRaw = "sampling/raw"
	EndpointJobs        = "jobs"
)

// Endpoint identifies one project's API.
type Endpoint struct {
	Org     string
	Region  string
	Cloud   string
	Project string

	// BaseURL, when set, replaces the scheme and host derived from
	// Org/Region/Cloud (proxies, local mock servers).
	BaseURL string
}

// APIURL returns https://{org}.{region}.{cloud}.api.imply.io/v1/projects/{project}/{endpoint}.
func APIURL(org, region, cloud, project, endpoint string) string {
	return fmt.Sprintf("https://%s.%s.%s.%s/v1/projects/%s/%s", org, region, cloud, APIHost, project, endpoint)
}

// URL returns the fully qualified URL of an endpoint suffix within the project.
func (e Endpoint) URL(endpoint string) string {
	base := strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	if base == "" {
		return APIURL(e.Org, e.Region, e.Cloud, e.Project, endpoint)
	}
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/v1/projects/%s/%s", base, e.Project, endpoint)
}
