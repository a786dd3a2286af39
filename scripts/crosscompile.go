package main

// crosscompile builds the server for every supported OS/arch pair into
// binaries/<version>/<os>/<arch>/ and points binaries/latest at the result.
// The version is the git tag (or short hash) and lands in main.CompileVersion.

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const executionFile = "radiography-shield"

// targets lists the pairs where the modernc SQLite driver (the -db-type
// default) builds without CGO. Genji registers only where its own build
// constraint allows.
var targets = map[string][]string{
	"linux":   {"amd64", "arm64", "386", "ppc64le", "riscv64", "s390x"},
	"darwin":  {"amd64", "arm64"},
	"windows": {"amd64", "arm64"},
	"freebsd": {"amd64"},
	"android": {"arm64"},
}

func main() {
	if err := exec.Command("go", "mod", "tidy").Run(); err != nil {
		fmt.Printf("go mod tidy - failed: %s\n", err)
	}

	version, err := getGitVersion()
	if err != nil {
		log.Fatalf("Error getting Git version: %v", err)
	}
	fmt.Printf("Building version: %s\n", version)

	root, err := getGitRootPath()
	if err != nil {
		log.Fatalf("Error getting Git root path: %v", err)
	}

	binariesPath := filepath.Join(root, "binaries", version)
	if err := os.MkdirAll(binariesPath, os.ModePerm); err != nil {
		log.Fatalf("Error creating binaries directory: %v", err)
	}
	latestLink := filepath.Join(root, "binaries", "latest")
	os.Remove(latestLink)
	if err := os.Symlink(version, latestLink); err != nil {
		log.Printf("Warning: Failed to create symlink 'latest': %v", err)
	}

	for osName, archs := range targets {
		for _, arch := range archs {
			if err := build(root, binariesPath, version, osName, arch); err != nil {
				log.Printf("%s/%s: %v", osName, arch, err)
				continue
			}
			fmt.Printf("Successfully built %s for %s/%s\n", executionFile, osName, arch)
		}
	}
}

func build(root, binariesPath, version, osName, arch string) error {
	name := executionFile
	dirOS := osName
	switch osName {
	case "windows":
		name += ".exe"
	case "darwin":
		dirOS = "mac"
	}
	outputDir := filepath.Join(binariesPath, dirOS, arch)
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return err
	}
	outputPath := filepath.Join(outputDir, name)

	duckdb := supportsDuckDB(osName, arch)
	args := []string{"build", "-ldflags", fmt.Sprintf("-s -w -X 'main.CompileVersion=%s'", version)}
	if duckdb {
		args = append(args, "-tags", "duckdb")
	}
	args = append(args, "-o", outputPath, ".")

	cmd := exec.Command("go", args...)
	cmd.Dir = root
	cmd.Stderr = os.Stderr
	cgo := "CGO_ENABLED=0"
	if duckdb {
		cgo = "CGO_ENABLED=1"
	}
	cmd.Env = append(os.Environ(), "GOOS="+osName, "GOARCH="+arch, cgo)
	if err := cmd.Run(); err != nil {
		if rmErr := os.RemoveAll(outputDir); rmErr != nil {
			log.Printf("Error removing output directory %s: %v", outputDir, rmErr)
		}
		return err
	}
	return os.Chmod(outputPath, 0755)
}

// supportsDuckDB matches the build constraint on the DuckDB driver file;
// cross-compiling CGO for other hosts is not attempted.
func supportsDuckDB(osName, arch string) bool {
	return osName == "linux" && arch == "amd64" && os.Getenv("SHIELD_DUCKDB") == "1"
}

func getGitRootPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// getGitVersion prefers the latest tag and falls back to the short hash.
func getGitVersion() (string, error) {
	if out, err := exec.Command("git", "describe", "--tags", "--abbrev=0").Output(); err == nil {
		if v := strings.TrimSpace(string(out)); v != "" {
			return v, nil
		}
	}
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
