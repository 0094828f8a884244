package config

import (
	"gopkg.in/yaml.v3"
)

// Slimfile represents the structure of the slim.yaml configuration file.
type Slimfile struct {
	Version   string               `yaml:"version"`
	Source    string               `yaml:"source"`
	Bases     string               `yaml:"bases"`
	Manifest  ManifestDTO          `yaml:"manifest"`
	Installer InstallerDTO         `yaml:"installer"`
	Identity  *IdentityDTO         `yaml:"identity"`
	Stages    map[string]*StageDTO `yaml:"stages"`
}

// ManifestDTO locates the dependency manifest and its lock file.
type ManifestDTO struct {
	Declared string `yaml:"declared"`
	Lock     string `yaml:"lock"`
}

// InstallerDTO configures the package installer.
type InstallerDTO struct {
	Kind    string            `yaml:"kind"`
	Mirror  string            `yaml:"mirror"`
	Target  string            `yaml:"target"`
	Command map[string]CmdDTO `yaml:"command"`
}

// IdentityDTO describes the service identity provisioned by installer stages.
type IdentityDTO struct {
	Name string `yaml:"name"`
	UID  *int   `yaml:"uid"`
	Home string `yaml:"home"`
}

// StageDTO represents a stage definition in the configuration.
type StageDTO struct {
	Role       string            `yaml:"role"`
	Base       string            `yaml:"base"`
	Workdir    string            `yaml:"workdir"`
	Context    []string          `yaml:"context"`
	Install    string            `yaml:"install"`
	Identity   bool              `yaml:"identity"`
	Env        map[string]string `yaml:"env"`
	Run        []CmdDTO          `yaml:"run"`
	Outputs    []string          `yaml:"outputs"`
	Copy       []CopyDTO         `yaml:"copy"`
	User       string            `yaml:"user"`
	Entrypoint []string          `yaml:"entrypoint"`
	TTY        bool              `yaml:"tty"`
}

// CopyDTO is an allow-listed import from another stage.
type CopyDTO struct {
	From  string   `yaml:"from"`
	Paths []string `yaml:"paths"`
}

// CmdDTO is a command written either as an argv list or as a shell string.
// A shell string runs through /bin/sh -c.
type CmdDTO []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *CmdDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*c = CmdDTO{"/bin/sh", "-c", node.Value}
		return nil
	}

	var argv []string
	if err := node.Decode(&argv); err != nil {
		return err
	}
	*c = argv
	return nil
}
