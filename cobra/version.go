package cobra

// License identifies the license governing the application, used to build
// the version header text.
type License string

const (
	License_MIT          License = "MIT"
	License_Apache_v2    License = "Apache-2.0"
	License_GNU_GPL_v3   License = "GPL-3.0"
	License_Unlicense    License = "Unlicense"
	License_Proprietary  License = "Proprietary"
)

// Version describes the build/release metadata printed by the --version flag
// and the application header. Callers construct one with NewVersion and pass
// it to Cobra.SetVersion.
type Version interface {
	GetHeader() string
	GetPackage() string
	GetRootPackagePath() string
	GetDescription() string
	GetBuild() string
	GetRelease() string
	GetAppId() string
	GetAuthor() string
	GetDate() string
	GetLicenseName() string
}

type version struct {
	license     License
	pkg         string
	description string
	date        string
	build       string
	release     string
	author      string
	prefix      string
	appModel    any
	extra       int
}

// NewVersion builds a Version from explicit build metadata, typically injected
// at compile time via -ldflags. appModel and extra are reserved for embedding
// an application-specific descriptor and are not interpreted here.
func NewVersion(license License, pkg, description, date, build, release, author, prefix string, appModel any, extra int) Version {
	return &version{
		license:     license,
		pkg:         pkg,
		description: description,
		date:        date,
		build:       build,
		release:     release,
		author:      author,
		prefix:      prefix,
		appModel:    appModel,
		extra:       extra,
	}
}

func (v *version) GetHeader() string {
	return v.prefix + " " + v.pkg + " " + v.release
}

func (v *version) GetPackage() string         { return v.pkg }
func (v *version) GetRootPackagePath() string  { return v.prefix }
func (v *version) GetDescription() string      { return v.description }
func (v *version) GetBuild() string            { return v.build }
func (v *version) GetRelease() string          { return v.release }
func (v *version) GetAppId() string            { return v.prefix }
func (v *version) GetAuthor() string           { return v.author }
func (v *version) GetDate() string             { return v.date }
func (v *version) GetLicenseName() string      { return string(v.license) }
