// Copyright Nora Vasquez, 2026. All rights reserved.

package download

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvasquez/fastqfetch/pkg/types"
)

func TestBuildMethods(t *testing.T) {
	methods, err := BuildMethods([]string{MethodENAFTP, MethodAWSHTTP}, http.DefaultClient, types.DownloadConfig{})
	if err != nil {
		t.Fatalf("BuildMethods: %v", err)
	}
	if len(methods) != 2 {
		t.Fatalf("got %d methods, want 2", len(methods))
	}
	if methods[0].Name() != MethodENAFTP || methods[1].Name() != MethodAWSHTTP {
		t.Errorf("method order = %s, %s", methods[0].Name(), methods[1].Name())
	}
}

func TestBuildMethodsDefaults(t *testing.T) {
	methods, err := BuildMethods(nil, http.DefaultClient, types.DownloadConfig{})
	if err != nil {
		t.Fatalf("BuildMethods: %v", err)
	}
	if len(methods) != len(DefaultMethods) {
		t.Errorf("got %d methods, want %d", len(methods), len(DefaultMethods))
	}
}

func TestBuildMethodsUnknownName(t *testing.T) {
	if _, err := BuildMethods([]string{"carrier-pigeon"}, http.DefaultClient, types.DownloadConfig{}); err == nil {
		t.Error("expected error for unknown method name")
	}
}

func md5hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func TestENAFTPFetch(t *testing.T) {
	content1 := []byte("@read1\nACGT\n+\nIIII\n")
	content2 := []byte("@read2\nTGCA\n+\nIIII\n")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "_1.fastq.gz"):
			w.Write(content1)
		case strings.HasSuffix(r.URL.Path, "_2.fastq.gz"):
			w.Write(content2)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	run := types.Run{
		Accession: "SRR100",
		FastqURLs: []string{
			server.URL + "/vol1/SRR100_1.fastq.gz",
			server.URL + "/vol1/SRR100_2.fastq.gz",
		},
		FastqMD5s: []string{md5hex(content1), md5hex(content2)},
	}

	destDir := t.TempDir()
	method := &enaFTPMethod{client: server.Client(), cfg: types.DownloadConfig{}}

	paths, err := method.Fetch(context.Background(), run, destDir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d files, want 2", len(paths))
	}

	got, err := os.ReadFile(filepath.Join(destDir, "SRR100_1.fastq.gz"))
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(got) != string(content1) {
		t.Errorf("file content = %q", got)
	}
}

func TestENAFTPFetchMD5Mismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("corrupted"))
	}))
	defer server.Close()

	run := types.Run{
		Accession: "SRR100",
		FastqURLs: []string{server.URL + "/vol1/SRR100.fastq.gz"},
		FastqMD5s: []string{md5hex([]byte("original"))},
	}

	destDir := t.TempDir()
	method := &enaFTPMethod{client: server.Client(), cfg: types.DownloadConfig{}}

	if _, err := method.Fetch(context.Background(), run, destDir); err == nil {
		t.Fatal("expected MD5 mismatch error")
	}
	if _, err := os.Stat(filepath.Join(destDir, "SRR100.fastq.gz")); !os.IsNotExist(err) {
		t.Error("corrupted file was kept")
	}
	entries, err := os.ReadDir(destDir)
	if err != nil {
		t.Fatalf("reading dest dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("dest dir not clean: %v", entries)
	}
}

func TestENAFTPFetchNoURLs(t *testing.T) {
	method := &enaFTPMethod{client: http.DefaultClient, cfg: types.DownloadConfig{}}
	if _, err := method.Fetch(context.Background(), types.Run{Accession: "SRR100"}, t.TempDir()); err == nil {
		t.Error("expected error for run without file locations")
	}
}

func TestAWSHTTPFetch(t *testing.T) {
	content := []byte("sra-object-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/SRR200/SRR200" {
			http.NotFound(w, r)
			return
		}
		w.Write(content)
	}))
	defer server.Close()

	oldBase := awsODPBase
	awsODPBase = server.URL
	defer func() { awsODPBase = oldBase }()

	destDir := t.TempDir()
	method := &awsHTTPMethod{client: server.Client(), cfg: types.DownloadConfig{}}

	paths, err := method.Fetch(context.Background(), types.Run{Accession: "SRR200"}, destDir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := filepath.Join(destDir, "SRR200.sra")
	if len(paths) != 1 || paths[0] != want {
		t.Fatalf("paths = %v, want [%s]", paths, want)
	}
	got, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("file content = %q", got)
	}
}

// --- fake executor ---

type fakeExecutor struct {
	missing  map[string]bool
	runErr   error
	commands [][]string
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.missing[file] {
		return "", fmt.Errorf("%s: executable file not found in $PATH", file)
	}
	return "/usr/bin/" + file, nil
}

func (f *fakeExecutor) Run(_ context.Context, _, _ io.Writer, name string, args ...string) error {
	f.commands = append(f.commands, append([]string{name}, args...))
	return f.runErr
}

func TestPrefetchFetch(t *testing.T) {
	exec := &fakeExecutor{}
	method := &prefetchMethod{exec: exec}

	destDir := t.TempDir()
	paths, err := method.Fetch(context.Background(), types.Run{Accession: "SRR300"}, destDir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := filepath.Join(destDir, "SRR300", "SRR300.sra")
	if len(paths) != 1 || paths[0] != want {
		t.Errorf("paths = %v, want [%s]", paths, want)
	}
	if len(exec.commands) != 1 || exec.commands[0][0] != "prefetch" {
		t.Errorf("commands = %v", exec.commands)
	}
}

func TestPrefetchToolMissing(t *testing.T) {
	method := &prefetchMethod{exec: &fakeExecutor{missing: map[string]bool{"prefetch": true}}}
	if _, err := method.Fetch(context.Background(), types.Run{Accession: "SRR300"}, t.TempDir()); err == nil {
		t.Error("expected error when prefetch is not installed")
	}
}

func TestAscpFetch(t *testing.T) {
	exec := &fakeExecutor{}
	method := &ascpMethod{exec: exec, keyPath: "/keys/asperaweb_id_dsa.openssh"}

	run := types.Run{
		Accession: "SRR400",
		FastqURLs: []string{"https://ftp.sra.ebi.ac.uk/vol1/fastq/SRR400/SRR400.fastq.gz"},
	}

	destDir := t.TempDir()
	paths, err := method.Fetch(context.Background(), run, destDir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %v", paths)
	}

	if len(exec.commands) != 1 {
		t.Fatalf("commands = %v", exec.commands)
	}
	cmd := exec.commands[0]
	if cmd[0] != "ascp" {
		t.Errorf("command = %v", cmd)
	}
	source := cmd[len(cmd)-2]
	if source != "era-fasp@fasp.sra.ebi.ac.uk:/vol1/fastq/SRR400/SRR400.fastq.gz" {
		t.Errorf("ascp source = %q", source)
	}
}

func TestAscpFetchNoKey(t *testing.T) {
	method := &ascpMethod{exec: &fakeExecutor{}, keyPath: ""}
	run := types.Run{
		Accession: "SRR400",
		FastqURLs: []string{"https://ftp.sra.ebi.ac.uk/vol1/fastq/SRR400/SRR400.fastq.gz"},
	}
	if _, err := method.Fetch(context.Background(), run, t.TempDir()); err == nil {
		t.Error("expected error without an Aspera key")
	}
}

func TestEnaHostPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"https url", "https://ftp.sra.ebi.ac.uk/vol1/fastq/SRR1/SRR1.fastq.gz", "/vol1/fastq/SRR1/SRR1.fastq.gz", false},
		{"no path", "https://ftp.sra.ebi.ac.uk", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := enaHostPath(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("enaHostPath: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
