package guard

import (
	"os"
	"path/filepath"
	"testing"
)

func mustPolicy(t *testing.T, cfg Config) *Policy {
	t.Helper()
	p, err := NewPolicy(cfg)
	if err != nil {
		t.Fatalf("NewPolicy error: %v", err)
	}
	return p
}

func TestEvaluate_LegitimateCommandsPass(t *testing.T) {
	p := mustPolicy(t, Config{})

	legitimate := []string{
		"ls -la",
		"cat README.md",
		"grep -r 'TODO' src/",
		"python script.py",
		"pip install requests",
		"git status",
		"git diff HEAD~1",
		"curl https://example.com",
		"echo hello world",
		"find . -name '*.py'",
		"wc -l file.txt",
		"head -20 file.txt",
		"tail -f /var/log/syslog",
		"mkdir -p new_dir",
		"cp file1.txt file2.txt",
		"mv old.txt new.txt",
		"chmod 644 file.txt",
		"npm install",
		"node server.js",
		"python3 manage.py runserver",
		"uv sync --dev",
		"pytest tests/ -v",
		"ruff check .",
	}

	for _, cmd := range legitimate {
		if d := p.Evaluate(cmd, "/tmp"); !d.Permitted() {
			t.Errorf("legitimate command blocked: %q (reason %s, detail %s)", cmd, d.Reason, d.Detail)
		}
	}
}

func TestEvaluate_DenyPatterns(t *testing.T) {
	p := mustPolicy(t, Config{})

	blocked := []string{
		"rm -rf /",
		"rm -r important_dir",
		"mkfs.ext4 /dev/sda1",
		"dd if=/dev/zero of=/dev/sda",
		"shutdown now",
		"reboot",
	}

	for _, cmd := range blocked {
		d := p.Evaluate(cmd, "/tmp")
		if d.Permitted() {
			t.Errorf("dangerous command not blocked: %q", cmd)
			continue
		}
		if d.Reason != ReasonDeniedPattern {
			t.Errorf("expected denied_pattern for %q, got %s", cmd, d.Reason)
		}
	}
}

func TestEvaluate_BypassVectors(t *testing.T) {
	p := mustPolicy(t, Config{})

	vectors := []struct {
		name    string
		command string
	}{
		{"ansi-c hex quoting", `$'\x72\x6d' -rf /`},
		{"command substitution dollar paren", "$(echo rm) -rf /"},
		{"command substitution backticks", "`echo rm` -rf /"},
		{"eval", "eval 'rm -rf /'"},
		{"exec", "exec rm -rf /"},
		{"bash -c", "bash -c 'rm -rf /'"},
		{"sh -c", "sh -c 'rm -rf /'"},
		{"zsh -c", "zsh -c 'rm -rf /'"},
		{"python -c", `python -c 'import os; os.system("rm -rf /")'`},
		{"python3 -c", `python3 -c 'import shutil; shutil.rmtree("/")'`},
		{"perl -e", `perl -e 'system("rm -rf /")'`},
		{"ruby -e", `ruby -e 'system("rm -rf /")'`},
		{"node -e", `node -e 'require("child_process").execSync("rm -rf /")'`},
		{"pipe to bash", "echo 'rm -rf /' | bash"},
		{"pipe to sh", "echo 'rm -rf /' | sh"},
		{"base64 decode long flag", "echo cm0gLXJmIC8= | base64 --decode | sh"},
		{"base64 decode short flag", "echo cm0gLXJmIC8= | base64 -d"},
		{"export var evasion", "export CMD=rm; $CMD -rf /"},
	}

	for _, tc := range vectors {
		t.Run(tc.name, func(t *testing.T) {
			if d := p.Evaluate(tc.command, "/tmp"); d.Permitted() {
				t.Errorf("bypass vector not blocked: %q", tc.command)
			}
		})
	}
}

func TestEvaluate_CaseInsensitive(t *testing.T) {
	p := mustPolicy(t, Config{})
	if d := p.Evaluate("RM -RF /", "/tmp"); d.Permitted() {
		t.Error("expected upper-case rm -rf to be blocked")
	}
}

func TestEvaluate_Allowlist(t *testing.T) {
	p := mustPolicy(t, Config{
		AllowPatterns: []string{`^git\b`, `^ls\b`},
	})

	if d := p.Evaluate("git status", "/tmp"); !d.Permitted() {
		t.Errorf("allowlisted command blocked: %s/%s", d.Reason, d.Detail)
	}
	d := p.Evaluate("curl https://example.com", "/tmp")
	if d.Permitted() {
		t.Fatal("expected non-allowlisted command to be rejected")
	}
	if d.Reason != ReasonNotAllowlisted {
		t.Fatalf("expected not_allowlisted, got %s", d.Reason)
	}
}

func TestEvaluate_AllowlistDoesNotOverrideDeny(t *testing.T) {
	p := mustPolicy(t, Config{
		AllowPatterns: []string{`.*`},
	})
	d := p.Evaluate("rm -rf /", "/tmp")
	if d.Permitted() {
		t.Fatal("deny must win over allowlist")
	}
	if d.Reason != ReasonDeniedPattern {
		t.Fatalf("expected denied_pattern, got %s", d.Reason)
	}
}

func TestEvaluate_WorkspaceConfinement(t *testing.T) {
	p := mustPolicy(t, Config{RestrictToWorkspace: true})
	workdir := t.TempDir()

	d := p.Evaluate("cat /etc/passwd", workdir)
	if d.Permitted() {
		t.Fatal("expected absolute path outside workspace to be rejected")
	}
	if d.Reason != ReasonOutsideWorkspace {
		t.Fatalf("expected outside_workspace, got %s", d.Reason)
	}

	if d := p.Evaluate("./venv/bin/python script.py", workdir); !d.Permitted() {
		t.Errorf("relative path wrongly rejected: %s/%s", d.Reason, d.Detail)
	}

	inside := filepath.Join(workdir, "notes.txt")
	if err := os.WriteFile(inside, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if d := p.Evaluate("cat "+inside, workdir); !d.Permitted() {
		t.Errorf("path inside workspace wrongly rejected: %s/%s", d.Reason, d.Detail)
	}
}

func TestEvaluate_PathTraversal(t *testing.T) {
	p := mustPolicy(t, Config{RestrictToWorkspace: true})

	cases := []string{
		"cat ../../etc/passwd",
		`type ..\..\secrets.txt`,
		"cat ..%2f..%2fetc%2fpasswd",
	}
	for _, cmd := range cases {
		d := p.Evaluate(cmd, "/tmp")
		if d.Permitted() {
			t.Errorf("traversal not blocked: %q", cmd)
			continue
		}
		if d.Reason != ReasonPathTraversal {
			t.Errorf("expected path_traversal for %q, got %s", cmd, d.Reason)
		}
	}
}

func TestEvaluate_NoConfinementWhenDisabled(t *testing.T) {
	p := mustPolicy(t, Config{RestrictToWorkspace: false})
	if d := p.Evaluate("cat /etc/passwd", "/tmp"); !d.Permitted() {
		t.Errorf("confinement applied while disabled: %s", d.Reason)
	}
}

func TestEvaluate_ObfuscatedDenyAfterNormalization(t *testing.T) {
	p := mustPolicy(t, Config{})
	// $'\162\155' decodes to rm
	if d := p.Evaluate(`$'\162\155' -rf /`, "/tmp"); d.Permitted() {
		t.Error("octal-obfuscated rm -rf not blocked")
	}
}
