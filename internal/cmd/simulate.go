package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/arbiter"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/boost"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/event"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/logging"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/platform"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/profile"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/session"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/uclamp"
)

var (
	simSessions int
	simBatches  int
	simTarget   time.Duration
	simJitter   float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the control loop against a synthetic workload",
	Long: `Creates synthetic boost sessions, feeds them jittered work
durations, and prints how each session's set point converged. Clamp
writes go to an in-memory recorder, not the kernel, so this is safe to
run anywhere.`,
	RunE: runSimulation,
}

func init() {
	simulateCmd.Flags().IntVar(&simSessions, "sessions", 3, "number of synthetic sessions")
	simulateCmd.Flags().IntVar(&simBatches, "batches", 120, "report batches per session")
	simulateCmd.Flags().DurationVar(&simTarget, "target", 16670*time.Microsecond, "target work duration")
	simulateCmd.Flags().Float64Var(&simJitter, "jitter", 0.25, "workload jitter fraction")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := profile.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.NopLogger()
	store := profile.NewStore(&cfg.Profile)
	setter := uclamp.NewRecordingSetter()

	mgr := arbiter.NewManager(arbiter.Config{
		Setter:   setter,
		Hints:    platform.NewConfigSink(cfg.Hints.Supported, log),
		Profiles: store,
		Bus:      event.NewBus(),
		Logger:   log,
	})
	mgr.Start(cmd.Context())
	defer mgr.Stop()

	registry := session.NewRegistry()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	out := cmd.OutOrStdout()

	for i := 0; i < simSessions; i++ {
		tids := []int{1000 + i*10, 1001 + i*10}
		s, err := session.New(session.Config{
			TGID:      os.Getpid(),
			UID:       boost.MinAppUID + i,
			ThreadIDs: tids,
			Target:    simTarget,
			Arbiter:   mgr,
			Profiles:  store,
			Logger:    log,
		})
		if err != nil {
			return err
		}
		registry.Add(s)
	}

	fmt.Fprintf(out, "%d sessions, %d batches each, target %s\n\n",
		simSessions, simBatches, simTarget)

	for _, s := range registry.List() {
		drift := 0.8 + 0.4*rng.Float64() // per-session workload bias
		for batch := 0; batch < simBatches; batch++ {
			jitter := 1 + simJitter*(2*rng.Float64()-1)
			actual := time.Duration(float64(simTarget) * drift * jitter)
			err := s.ReportActualWorkDuration([]boost.WorkDuration{
				{Timestamp: time.Now(), Duration: actual},
			})
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "  %s  drift=%.2f  set_point=%d\n",
			s.IDString(), drift, s.SetPoint())
	}

	var dump strings.Builder
	mgr.DumpToWriter(&dump)
	fmt.Fprintf(out, "\n%s", dump.String())

	for _, s := range registry.List() {
		if err := s.Close(); err != nil {
			return err
		}
		registry.Remove(s.ID())
	}

	applied := setter.AppliedAll()
	fmt.Fprintf(out, "clamp writes recorded for %d threads\n", len(applied))
	return nil
}
