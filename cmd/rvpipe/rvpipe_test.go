package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvpipe/timing/core"
	"github.com/sarchlab/rvpipe/timing/pipeline"
)

var _ = Describe("rvpipe", func() {
	var (
		tempDir string
		stdout  *bytes.Buffer
		stderr  *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "rvpipe-test")
		Expect(err).NotTo(HaveOccurred())
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	writeProgram := func(src string) string {
		path := filepath.Join(tempDir, "prog.s")
		Expect(os.WriteFile(path, []byte(src), 0o644)).To(Succeed())
		return path
	}

	execute := func(stdin string, args ...string) error {
		cmd := newRootCmd()
		cmd.SetArgs(args)
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		return cmd.Execute()
	}

	loadUse := "lw x1, 0(x2)\nadd x3, x1, x4\n"

	It("should run one configuration and print a report", func() {
		path := writeProgram(loadUse)

		err := execute("", "run", path, "--reg", "x2=4", "--reg", "x4=10", "--mem", "4=100")

		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).To(ContainSubstring("Processor:            Full"))
		Expect(stdout.String()).To(ContainSubstring("Stalls:               1"))
		Expect(stdout.String()).To(ContainSubstring("x3   = 110"))
	})

	It("should print JSON with the history record keys", func() {
		path := writeProgram(".reg x2=10\n.reg x3=20\nadd x1, x2, x3\n")

		Expect(execute("", "run", path, "--json", "--config", "basic")).To(Succeed())

		var s core.Snapshot
		Expect(json.Unmarshal(stdout.Bytes(), &s)).To(Succeed())
		Expect(s.Processor).To(Equal("Basic"))
		Expect(s.CyclesTotal).To(Equal(uint64(5)))
		Expect(s.InstructionsRetired).To(Equal(uint64(1)))
	})

	It("should trace every cycle", func() {
		path := writeProgram("addi x1, x0, 5\nadd x2, x1, x1\n")

		Expect(execute("", "run", path, "--trace")).To(Succeed())

		Expect(stdout.String()).To(ContainSubstring("cycle 1:"))
		Expect(stdout.String()).To(ContainSubstring("bypass"))
		Expect(stdout.String()).To(ContainSubstring("IF/ID"))
	})

	It("should step until input ends", func() {
		path := writeProgram("add x1, x2, x3\n")

		Expect(execute("\n\n", "run", path, "--mode", "step")).To(Succeed())

		Expect(strings.Count(stdout.String(), "press Enter")).To(Equal(3))
		Expect(stdout.String()).To(ContainSubstring("cycle 5:"))
	})

	It("should compare every configuration", func() {
		path := writeProgram(loadUse)

		err := execute("", "compare", path, "--reg", "x2=4", "--reg", "x4=10", "--mem", "4=100")

		Expect(err).NotTo(HaveOccurred())
		for _, config := range core.AllConfigs() {
			Expect(stdout.String()).To(ContainSubstring(config.String()))
		}
	})

	It("should compare only the selected configurations as JSON", func() {
		path := writeProgram(loadUse)

		Expect(execute("", "compare", path, "--configs", "full,no-predictor", "--json")).To(Succeed())

		var results []core.Snapshot
		Expect(json.Unmarshal(stdout.Bytes(), &results)).To(Succeed())
		Expect(results).To(HaveLen(2))
		Expect(results[1].Processor).To(Equal("NoPredictor"))
	})

	It("should surface a decode error", func() {
		path := writeProgram("frob x1, x2\n")

		err := execute("", "run", path)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("frob"))
	})

	It("should reject an unknown configuration", func() {
		path := writeProgram(loadUse)
		Expect(execute("", "run", path, "--config", "turbo")).To(MatchError(core.ErrUnknownConfig))
	})

	It("should stop at the cycle limit", func() {
		path := writeProgram("jal x0, 0\n")
		Expect(execute("", "run", path, "--max-cycles", "50")).To(MatchError(core.ErrCycleLimit))
	})

	It("should run the core benchmarks as CSV", func() {
		Expect(execute("", "bench", "--core", "--csv", "--configs", "full")).To(Succeed())

		Expect(stdout.String()).To(HavePrefix("name,config,cycles"))
		Expect(stdout.String()).To(ContainSubstring("branch_loop,Full,"))
	})

	It("should format a cycle report", func() {
		line := formatCycle(4, pipeline.CycleReport{
			Redirect: pipeline.Redirect{Kind: pipeline.RedirectFlush, Target: 8},
			Stalled:  true,
		})
		Expect(line).To(Equal("cycle 4: flush->0x8 stall"))
	})
})
