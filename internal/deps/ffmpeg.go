package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const probeTimeout = 5 * time.Second

// RequiredEncoders are the encoders the local compositor passes to ffmpeg.
var RequiredEncoders = []string{"libx264", "aac"}

// CheckFFmpeg resolves the ffmpeg binary, reads its version and confirms the
// build ships the encoders local composition uses. required is false when
// another render backend is selected, which makes a miss non-fatal.
func CheckFFmpeg(ctx context.Context, binary string, required bool) Status {
	status := Status{
		Name:        "FFmpeg",
		Description: "Composes scenes into the final video",
		Optional:    !required,
	}
	path, err := resolveBinary(binary)
	status.Command = path
	if err != nil {
		status.Detail = err.Error()
		return status
	}

	version, err := runProbe(ctx, path, "-version")
	if err != nil {
		status.Detail = fmt.Sprintf("%s -version failed: %v", path, err)
		return status
	}
	status.Version = parseVersion(version)

	listing, err := runProbe(ctx, path, "-encoders")
	if err != nil {
		status.Detail = fmt.Sprintf("%s -encoders failed: %v", path, err)
		return status
	}
	if missing := missingEncoders(listing, RequiredEncoders); len(missing) > 0 {
		status.Detail = "missing encoders: " + strings.Join(missing, ", ")
		return status
	}
	status.Available = true
	return status
}

// resolveBinary checks explicit paths in place and looks bare names up on PATH.
func resolveBinary(binary string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if !strings.ContainsRune(binary, os.PathSeparator) {
		resolved, err := exec.LookPath(binary)
		if err != nil {
			return binary, fmt.Errorf("binary %q not found on PATH", binary)
		}
		return resolved, nil
	}
	info, err := os.Stat(binary)
	if err != nil || info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return binary, fmt.Errorf("%s is not an executable file", binary)
	}
	return binary, nil
}

func runProbe(ctx context.Context, path, flag string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return exec.CommandContext(ctx, path, "-hide_banner", flag).Output()
}

// parseVersion returns the token after "ffmpeg version" on the first line.
func parseVersion(out []byte) string {
	line, _, _ := bytes.Cut(out, []byte("\n"))
	fields := strings.Fields(string(line))
	if len(fields) >= 3 && fields[0] == "ffmpeg" && fields[1] == "version" {
		return fields[2]
	}
	return ""
}

// missingEncoders scans `ffmpeg -encoders` output, where each encoder line
// is a capability column followed by the encoder name.
func missingEncoders(listing []byte, want []string) []string {
	have := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 {
			have[fields[1]] = true
		}
	}
	var missing []string
	for _, name := range want {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
