package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

func main() {
	fmt.Println("=== Speech Stack Detection Test ===")
	fmt.Println()

	fmt.Println("1. Checking fallback TTS binaries...")
	for _, name := range []string{"espeak-ng", "espeak"} {
		checkBinary(name)
	}
	fmt.Println()

	fmt.Println("2. Checking Python interpreters...")
	candidates := []string{}
	if py := os.Getenv("LEXIFACE_PYTHON"); py != "" {
		fmt.Printf("   LEXIFACE_PYTHON = %s\n", py)
		candidates = append(candidates, py)
	} else {
		fmt.Println("   LEXIFACE_PYTHON not set")
	}
	candidates = append(candidates, "python3", "python")
	var pythons []string
	for _, name := range candidates {
		if path := checkBinary(name); path != "" {
			pythons = append(pythons, path)
		}
	}
	fmt.Println()

	fmt.Println("3. Checking face server module...")
	if dir := os.Getenv("LEXIFACE_FACE_DIR"); dir != "" {
		fmt.Printf("   LEXIFACE_FACE_DIR = %s\n", dir)
		checkPath(filepath.Join(dir, "pylips", "face"))
	} else {
		fmt.Println("   LEXIFACE_FACE_DIR not set")
	}
	for _, py := range pythons {
		if err := exec.Command(py, "-c", "import pylips").Run(); err == nil {
			fmt.Printf("   ✓ pylips importable via %s\n", py)
		} else {
			fmt.Printf("   ✗ pylips not importable via %s\n", py)
		}
	}
	fmt.Println()

	fmt.Println("4. Checking platform speech API...")
	if runtime.GOOS == "windows" {
		fmt.Println("   SAPI ships with Windows; the service probes it at startup")
	} else {
		fmt.Printf("   Not applicable on %s\n", runtime.GOOS)
	}
	fmt.Println()

	fmt.Println("5. Checking config file...")
	checkPath("configs/lexiface.yaml")

	fmt.Println()
	fmt.Println("=== Test Complete ===")
}

func checkBinary(name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Printf("   ✗ NOT FOUND: %s\n", name)
		return ""
	}
	fmt.Printf("   ✓ FOUND: %s -> %s\n", name, path)
	if out, err := exec.Command(path, "--version").CombinedOutput(); err == nil {
		fmt.Printf("     %s\n", firstLine(string(out)))
	}
	return path
}

func checkPath(path string) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("   ✓ FOUND: %s\n", path)
	} else {
		fmt.Printf("   ✗ NOT FOUND: %s\n", path)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
