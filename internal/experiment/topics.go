// Package experiment describes single perf_test invocations and the sweeps that produce them.
package experiment

import "fmt"

// Topic is a perf_test message type and size identifier.
type Topic string

// ValidTopics is the fixed whitelist of topics perf_test understands.
var ValidTopics = []Topic{
	"Array1k", "Array4k", "Array16k", "Array32k", "Array60k", "Array1m", "Array2m",
	"Struct16", "Struct256", "Struct4k", "Struct32k",
	"PointCloud512k", "PointCloud1m", "PointCloud2m", "PointCloud4m", "PointCloud8m",
	"Range", "NavSatFix", "RadarDetection", "RadarTrack",
}

func isValidTopic(name string) bool {
	for _, t := range ValidTopics {
		if string(t) == name {
			return true
		}
	}
	return false
}

// ParseTopic returns the Topic for name, or an error if it is not whitelisted.
func ParseTopic(name string) (Topic, error) {
	if !isValidTopic(name) {
		return "", fmt.Errorf("unknown topic %q", name)
	}
	return Topic(name), nil
}

// Flag is an optional QoS/security token appended to commands and file names.
type Flag string

const (
	// FlagReliable enables reliable QoS.
	FlagReliable Flag = "reliable"

	// FlagTransient enables transient-local durability.
	FlagTransient Flag = "transient"

	// FlagSecurity enables DDS security.
	FlagSecurity Flag = "with_security"
)
