package insertable

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/Norgate-AV/insert-engine/internal/assembler"
	"github.com/Norgate-AV/insert-engine/internal/buildsignal"
	"github.com/Norgate-AV/insert-engine/internal/config"
	"github.com/Norgate-AV/insert-engine/internal/report"
	"github.com/Norgate-AV/insert-engine/internal/toolrunner"
)

// PatchInsertable applies an assembly patch through the external assembler
// and reports the ROM byte ranges it wrote, so the driver can validate that
// a later reinsertion still writes every byte the previous one wrote.
type PatchInsertable struct {
	desc        report.Descriptor
	patchPath   string
	assembler   string
	runner      *toolrunner.Runner
	configDeps  []report.ConfigurationDependency
	lastHijacks []report.Hijack
}

// NewPatchInsertable builds a PatchInsertable for desc.
func NewPatchInsertable(desc report.Descriptor, cfg *config.Config) (*PatchInsertable, error) {
	if desc.Name == "" {
		return nil, buildsignal.ResourceNotFound("patch descriptor is missing a source path")
	}

	return &PatchInsertable{
		desc:      desc,
		patchPath: desc.Name,
		assembler: cfg.AssemblerPath,
		runner:    toolrunner.NewRunner(),
		configDeps: []report.ConfigurationDependency{
			{
				ConfigKeys: "assembler_path",
				Value:      cfg.AssemblerPath,
				Policy:     report.Rebuild,
			},
		},
	}, nil
}

// Init validates that the patch source exists and that the process-wide
// assembler is ready.
func (p *PatchInsertable) Init() error {
	if _, err := os.Stat(p.patchPath); err != nil {
		return buildsignal.ResourceNotFound(p.patchPath)
	}

	return assembler.Init(p.assembler)
}

// InsertWithDependencies applies the patch and reports its source file as a
// resource dependency.
func (p *PatchInsertable) InsertWithDependencies(romPath string) (*report.ResourceDependencySet, error) {
	if err := p.apply(romPath); err != nil {
		return nil, err
	}

	deps := report.NewResourceDependencySet()

	dep, err := report.NewResourceDependency(p.patchPath, report.Rebuild)
	if err != nil {
		return nil, buildsignal.Insertion("failed to observe patch dependency %s: %v", p.patchPath, err)
	}

	deps.Add(dep)

	return deps, nil
}

// Insert applies the patch without dependency reporting.
func (p *PatchInsertable) Insert(romPath string) error {
	return p.apply(romPath)
}

// ConfigurationDependencies returns the assembler-path dependency declared
// at construction time.
func (p *PatchInsertable) ConfigurationDependencies() []report.ConfigurationDependency {
	return p.configDeps
}

// Hijacks returns the ROM byte ranges the most recent apply wrote.
func (p *PatchInsertable) Hijacks() []report.Hijack {
	return p.lastHijacks
}

func (p *PatchInsertable) apply(romPath string) error {
	symbolsPath := p.patchPath + ".hijack.sym"
	defer os.Remove(symbolsPath)

	if err := assembler.ApplyWithSymbols(p.runner, p.patchPath, romPath, symbolsPath); err != nil {
		return buildsignal.Insertion("failed to apply patch %s: %v", p.patchPath, err)
	}

	hijacks, err := parseHijackLog(symbolsPath)
	if err != nil {
		return buildsignal.Insertion("failed to parse hijack log for %s: %v", p.patchPath, err)
	}

	p.lastHijacks = hijacks

	return nil
}

// parseHijackLog reads the WLA-DX format symbols file the assembler wrote
// for this patch (requested via ApplyWithSymbols' --symbols=wla flag) and
// returns the ROM byte ranges listed under its [ROMSECTIONS] header, one
// "<start>-<end> <label>" entry per line, start/end as hex file offsets.
func parseHijackLog(symbolsPath string) ([]report.Hijack, error) {
	f, err := os.Open(symbolsPath)
	if err != nil {
		if os.IsNotExist(err) {
			// The assembler ran but didn't emit a symbols file; nothing to
			// report, not a failure.
			return nil, nil
		}

		return nil, err
	}
	defer f.Close()

	var hijacks []report.Hijack
	inSection := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			inSection = line == "[ROMSECTIONS]"
			continue
		}

		if !inSection {
			continue
		}

		bounds := strings.SplitN(strings.Fields(line)[0], "-", 2)
		if len(bounds) != 2 {
			return nil, buildsignal.Insertion("malformed ROMSECTIONS entry %q in %s", line, symbolsPath)
		}

		start, err := strconv.ParseUint(strings.TrimPrefix(bounds[0], "0x"), 16, 32)
		if err != nil {
			return nil, buildsignal.Insertion("malformed ROMSECTIONS start address %q in %s: %v", bounds[0], symbolsPath, err)
		}

		end, err := strconv.ParseUint(strings.TrimPrefix(bounds[1], "0x"), 16, 32)
		if err != nil {
			return nil, buildsignal.Insertion("malformed ROMSECTIONS end address %q in %s: %v", bounds[1], symbolsPath, err)
		}

		if end <= start {
			return nil, buildsignal.Insertion("ROMSECTIONS entry %q in %s has non-positive length", line, symbolsPath)
		}

		hijacks = append(hijacks, report.Hijack{Address: uint32(start), Length: uint32(end - start)})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return hijacks, nil
}
