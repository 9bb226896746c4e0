package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"reservoir-hq/livesync/pkg/cli"
	"reservoir-hq/livesync/pkg/telemetry/health"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "0.1.0"
	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"
	// BuildDate is the build timestamp (set by build flags)
	BuildDate = "unknown"
)

var versionFlags struct {
	proxy bool
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including Git commit and build date.

With --proxy the version reported by the proxy's dashboard API is printed too.`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionFlags.proxy, "proxy", false, "also query the proxy's version")
}

func versionInfo() health.VersionInfo {
	return health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
		GoVersion: runtime.Version(),
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(output)
	if err != nil {
		return err
	}

	info := struct {
		health.VersionInfo
		OS           string `json:"os"`
		Arch         string `json:"arch"`
		ProxyVersion string `json:"proxy_version,omitempty"`
	}{VersionInfo: versionInfo(), OS: runtime.GOOS, Arch: runtime.GOARCH}

	if versionFlags.proxy {
		a, err := newApp(cmd.Context(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.API.Timeout)
		defer cancel()
		info.ProxyVersion, err = a.client.Version(ctx)
		if err != nil {
			return cli.NewCommandError("version", err)
		}
	}

	w := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		return cli.WriteJSON(w, info)
	}
	fmt.Fprintf(w, "livesync %s\n", info.Version)
	fmt.Fprintf(w, "Git Commit: %s\n", info.Commit)
	fmt.Fprintf(w, "Build Date: %s\n", info.BuildTime)
	fmt.Fprintf(w, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "OS/Arch: %s/%s\n", info.OS, info.Arch)
	if info.ProxyVersion != "" {
		fmt.Fprintf(w, "Proxy Version: %s\n", info.ProxyVersion)
	}
	return nil
}
