package version

import (
	tmversion "github.com/tendermint/tendermint/version"
)

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built software's version.
	Version = RSUChainSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// RSUChainSemVer is the semantic version of the application.
	RSUChainSemVer = "0.3.0"

	// AppProtocol versions the state machine: the transaction set, the state
	// layout and the adjudication rules. It is reported to Tendermint in
	// ResponseInfo and must change whenever replaying old blocks would yield
	// different state.
	AppProtocol uint64 = 1
)

// Info is printed by the version command.
type Info struct {
	Version     string `json:"version"`
	AppProtocol uint64 `json:"app_protocol"`
	Tendermint  string `json:"tendermint"`
	ABCI        string `json:"abci"`
}

// Get returns the version information of this build.
func Get() Info {
	return Info{
		Version:     Version,
		AppProtocol: AppProtocol,
		Tendermint:  tmversion.TMCoreSemVer,
		ABCI:        tmversion.ABCIVersion,
	}
}
