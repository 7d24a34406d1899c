package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/mpc-bioinformatics/decoydb/pkg/comet"
	"github.com/mpc-bioinformatics/decoydb/pkg/core"
	"github.com/mpc-bioinformatics/decoydb/pkg/fasta"
	"github.com/mpc-bioinformatics/decoydb/pkg/identify"
	"github.com/mpc-bioinformatics/decoydb/pkg/mzml"
	"github.com/mpc-bioinformatics/decoydb/pkg/store/postgres"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <mzml>",
	Short: "Find target and decoy peptides matching each spectrum's precursor mass",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentify,
}

func runIdentify(cmd *cobra.Command, args []string) error {
	if identifyLowerPPM <= 0 || identifyUpperPPM <= 0 {
		return fmt.Errorf("--lower-ppm and --upper-ppm must be positive")
	}

	fixMap := make(map[byte]core.Modification)
	variableMap := make(map[byte]core.Modification)
	if identifyModsCSV != "" {
		modsFile, err := os.Open(identifyModsCSV)
		if err != nil {
			return fmt.Errorf("opening modification CSV: %w", err)
		}
		fixMap, variableMap, err = core.LoadModificationsFromCSV(modsFile)
		modsFile.Close()
		if err != nil {
			return fmt.Errorf("parsing modification CSV: %w", err)
		}
	}

	mzmlFile, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening mzML: %w", err)
	}
	defer mzmlFile.Close()

	ctx := context.Background()
	st, err := postgres.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to store: %w", err)
	}
	defer st.Close()

	outFile, err := os.Create(identifyOut)
	if err != nil {
		return fmt.Errorf("creating output FASTA: %w", err)
	}
	defer outFile.Close()
	writer := fasta.NewWriter(outFile)

	cfg := identify.Config{
		LowerPPM: identifyLowerPPM, UpperPPM: identifyUpperPPM,
		DecoyCount: identifyDecoyCount, DecoyWorkers: identifyThreads,
		MaxVariableMods:   len(variableMap),
		MaxDecoyDuration:  time.Duration(identifyMaxDecoySecs) * time.Second,
		FragmentTolerance: identifyFragTolerance,
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	reader := mzml.NewReader(mzmlFile)
	spectrumCount, timeoutCount := 0, 0
	totalDecoys, totalTargets := 0, 0
	for reader.Next() {
		spectrum := *reader.Spectrum()
		if err := spectrum.Validate(); err != nil {
			warn("skipping invalid spectrum %s: %v", spectrum.Name(), err)
			continue
		}
		result, err := identify.Run(ctx, st, spectrum, cfg, fixMap, variableMap, rng)
		if err != nil {
			return fmt.Errorf("identifying spectrum %s: %w", spectrum.Name(), err)
		}
		spectrumCount++
		totalTargets += len(result.Targets)
		totalDecoys += len(result.Decoys)
		if result.DecoyTimeout {
			timeoutCount++
			if err := writeLessDecoysSidecar(identifyOut, spectrum.Name(), len(result.Decoys)); err != nil {
				return fmt.Errorf("writing less-decoys sidecar for spectrum %s: %w", spectrum.Name(), err)
			}
		}
		for seq, p := range result.Targets {
			if err := writer.WritePeptide(p, result.TargetModSummary[seq]); err != nil {
				return fmt.Errorf("writing target %s: %w", seq, err)
			}
		}
		for _, d := range result.Decoys {
			if err := writer.WriteDecoy(d); err != nil {
				return fmt.Errorf("writing decoy %s: %w", d.AASequence, err)
			}
		}
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("reading mzML: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flushing output FASTA: %w", err)
	}

	paramsPath := strings.TrimSuffix(identifyOut, ".fasta") + ".comet.params"
	paramsFile, err := os.Create(paramsPath)
	if err != nil {
		return fmt.Errorf("creating Comet parameters file: %w", err)
	}
	defer paramsFile.Close()
	if _, err := paramsFile.WriteString(comet.Render(comet.Params{
		FixMap: fixMap, VariableMap: variableMap,
		FASTAPath:                identifyOut,
		NumTargetAndDecoys:       totalTargets + totalDecoys,
		MaxVariableModsInPeptide: len(variableMap),
		FragmentTolerance:        identifyFragTolerance,
	})); err != nil {
		return fmt.Errorf("writing Comet parameters file: %w", err)
	}

	success(
		"processed %d spectra: %d targets, %d decoys, output in %s",
		spectrumCount, totalTargets, totalDecoys, identifyOut,
	)
	if timeoutCount > 0 {
		warn("%d spectra hit the decoy generation timeout before reaching the requested count", timeoutCount)
	}
	return nil
}

// writeLessDecoysSidecar records the actual decoy count reached for a
// spectrum whose decoy generation timed out, named after the run's output
// FASTA with the spectrum's identity and a .less_decoys extension.
func writeLessDecoysSidecar(outPath, spectrumName string, decoyCount int) error {
	base := strings.TrimSuffix(outPath, ".fasta")
	path := fmt.Sprintf("%s.%s.less_decoys", base, sanitizeFilenamePart(spectrumName))
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", decoyCount)), 0o644)
}

// sanitizeFilenamePart replaces characters unsafe for a filename with
// underscores, since spectrum identities (e.g. "controllerType=0
// controllerNumber=1 scan=42") carry spaces and punctuation.
func sanitizeFilenamePart(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
}
