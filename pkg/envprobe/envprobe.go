// Package envprobe detects what the training environment offers: the
// trainer binary, a python interpreter, and the CUDA driver/toolkit. All
// probes are best-effort; a failed probe means "not detected", never an
// error for the caller.
package envprobe

import (
	"os/exec"
	"regexp"
	"strings"
)

// Status is the result of probing the host.
type Status struct {
	TrainerPath   string `json:"trainer_path,omitempty"`
	PythonPath    string `json:"python_path,omitempty"`
	CUDAAvailable bool   `json:"cuda_available"`
	DriverVersion string `json:"driver_version,omitempty"`
	CUDAVersion   string `json:"cuda_version,omitempty"`
}

// Prober runs the individual detection commands. The zero value probes the
// real host; tests swap the exec hooks.
type Prober struct {
	LookPath func(name string) (string, error)
	Run      func(name string, args ...string) (string, error)
}

// New returns a Prober wired to the OS.
func New() *Prober {
	return &Prober{
		LookPath: exec.LookPath,
		Run: func(name string, args ...string) (string, error) {
			out, err := exec.Command(name, args...).Output()
			return string(out), err
		},
	}
}

var nvccReleasePattern = regexp.MustCompile(`release\s+([0-9]+\.[0-9]+)`)

// Check runs every probe and assembles the status.
func (p *Prober) Check(trainerBin string) Status {
	var st Status

	if trainerBin == "" {
		trainerBin = "yolo"
	}
	if path, err := p.LookPath(trainerBin); err == nil {
		st.TrainerPath = path
	}
	for _, python := range []string{"python3", "python"} {
		if path, err := p.LookPath(python); err == nil {
			st.PythonPath = path
			break
		}
	}

	st.DriverVersion = p.driverVersion()
	st.CUDAVersion = p.toolkitVersion()
	st.CUDAAvailable = st.DriverVersion != ""

	return st
}

// driverVersion asks the NVIDIA management tool for the driver version.
func (p *Prober) driverVersion() string {
	out, err := p.Run("nvidia-smi", "--query-gpu=driver_version", "--format=csv,noheader")
	if err != nil {
		return ""
	}
	// Multi-GPU hosts report one line per device; the driver is shared.
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(line)
}

// toolkitVersion extracts the CUDA release from `nvcc --version`.
func (p *Prober) toolkitVersion() string {
	out, err := p.Run("nvcc", "--version")
	if err != nil {
		return ""
	}
	if m := nvccReleasePattern.FindStringSubmatch(out); m != nil {
		return m[1]
	}
	return ""
}
