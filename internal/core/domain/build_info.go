package domain

import "time"

// BuildInfo is the provenance record of one successfully executed stage.
type BuildInfo struct {
	BuildID   string            `json:"build_id,omitzero"`
	Stage     string            `json:"stage,omitzero"`
	Role      Role              `json:"role,omitzero"`
	Base      string            `json:"base,omitzero"`
	InputHash string            `json:"input_hash,omitzero"`
	CacheKey  CacheKey          `json:"cache_key,omitzero"`
	Outputs   map[string]string `json:"outputs,omitzero"`
	Duration  time.Duration     `json:"duration,omitzero"`
	Timestamp time.Time         `json:"timestamp,omitzero"`
}

// ImageConfig is the runtime configuration of the assembled artifact set.
type ImageConfig struct {
	Base       string   `json:"base"`
	User       string   `json:"user"`
	Entrypoint []string `json:"entrypoint"`
	Env        []string `json:"env,omitempty"`
	WorkingDir string   `json:"working_dir,omitempty"`
}

// BuildResult is the outcome of a successful stage graph execution.
type BuildResult struct {
	ID     string
	Stages map[string]ArtifactSet
	Final  ArtifactSet
	Image  ImageConfig
}

// Blobs returns the final artifact set keyed by artifact name.
func (r *BuildResult) Blobs() map[string][]byte {
	blobs := make(map[string][]byte, len(r.Final))
	for _, a := range r.Final {
		blobs[a.Name()] = a.Bytes()
	}
	return blobs
}
