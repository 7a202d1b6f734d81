// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Command term-scout finds Kubernetes resources stuck in Terminating state
// and explains what is blocking each one.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/monadic/term-scout/internal/clierr"
	"github.com/monadic/term-scout/internal/config"
	"github.com/monadic/term-scout/internal/tracelog"
	"github.com/monadic/term-scout/pkg/diagnose"
	"github.com/monadic/term-scout/pkg/kubectl"
)

var (
	// BuildTag is set during build
	BuildTag = "dev"
	// BuildDate is set during build
	BuildDate = "unknown"
)

var (
	flagNamespace   string
	flagList        bool
	flagVerbose     bool
	flagLong        bool
	flagJSON        bool
	flagInteractive bool
)

var rootCmd = &cobra.Command{
	Use:   "term-scout [TYPE] [NAME]",
	Short: "Diagnose Kubernetes resources stuck in Terminating",
	Long: `term-scout - diagnose Kubernetes resources stuck in Terminating

term-scout scans for resources whose deletion has stalled and explains what
is blocking each one:

  - Finalizers a controller never completed and removed
  - Resources still present inside a terminating namespace
  - Owner references and recent events for stuck resources
  - Copy-paste kubectl remediation commands (printed, never executed)

All cluster access goes through the kubectl binary; nothing is mutated.
TYPE accepts the same spellings as kubectl (pod, pods, pvc, crd, ...);
without TYPE every supported kind is scanned.

Environment Variables:
  TERMSCOUT_KUBECTL       kubectl binary to invoke (default: kubectl)
  TERMSCOUT_DEBUG         =1 writes a kubectl trace under ~/.term-scout/logs
`,
	Example: `  term-scout                          # Find and diagnose all terminating resources (all types)
  term-scout namespace                # Only namespaces stuck terminating
  term-scout crd                      # Only CRDs stuck terminating
  term-scout pod -n app               # Only pods in namespace app
  term-scout namespace my-stuck-ns    # Diagnose why namespace my-stuck-ns is stuck
  term-scout pod my-pod -n app        # Diagnose why pod my-pod in app is stuck
  term-scout -l                       # List only (no diagnosis)
  term-scout --long                   # Include all info (e.g. unavailable API services)
  term-scout --json                   # Emit the findings as a JSON document
  term-scout -i                       # Pick one resource interactively, then diagnose it

Run after selecting the kubeconfig context to inspect (kubectl config use-context <name>).`,
	Args:          cobra.MaximumNArgs(2),
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flagNamespace, "namespace", "n", "", "Limit pod/service/pvc/etc. to namespace NS")
	rootCmd.Flags().BoolVarP(&flagList, "list", "l", false, "Only list terminating resources; do not run full diagnosis")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Include events and extra detail")
	rootCmd.Flags().BoolVar(&flagLong, "long", false, "Include all diagnostic info (e.g. unavailable API services for namespaces)")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "Emit the findings as a JSON document instead of the text report")
	rootCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Pick one terminating resource from a list, then diagnose it")

	rootCmd.ValidArgsFunction = completeTypes
	rootCmd.RegisterFlagCompletionFunc("namespace", completeNamespaces)

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("term-scout version %s (built %s)\n", BuildTag, BuildDate)
		},
	})

	// Add completion command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for term-scout.

Bash:
  $ source <(term-scout completion bash)
  # Or add to ~/.bashrc:
  $ term-scout completion bash >> ~/.bashrc

Zsh:
  $ source <(term-scout completion zsh)
  # Or install to fpath:
  $ term-scout completion zsh > "${fpath[1]}/_term-scout"

Fish:
  $ term-scout completion fish | source
  # Or install:
  $ term-scout completion fish > ~/.config/fish/completions/term-scout.fish

PowerShell:
  PS> term-scout completion powershell | Out-String | Invoke-Expression
`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	})
}

func runRoot(cmd *cobra.Command, args []string) error {
	if flagJSON && flagInteractive {
		return errors.New("--json and --interactive cannot be combined")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	for _, extra := range cfg.ExtraKinds {
		kubectl.RegisterKind(extra.Name, extra.ClusterScoped, extra.Aliases...)
	}

	kinds, err := scanKinds(args, cfg.ExtraKinds)
	if err != nil {
		return err
	}
	name := ""
	if len(args) > 1 {
		name = args[1]
	}

	tracer := tracelog.FromEnv(config.LogsDir())
	defer func() {
		if path := tracer.Close(); path != "" {
			fmt.Fprintf(os.Stderr, "debug trace: %s\n", path)
		}
	}()

	ctx := cmd.Context()
	runner := kubectl.NewExecRunner(cfg.Kubectl, cfg.Timeout())
	preflight(ctx, runner, tracer)

	contextName := getCurrentContext()
	reporter := diagnose.NewReporter(kubectl.NewClientWithTracer(runner, tracer), os.Stdout, diagnose.Options{
		Kinds:     kinds,
		Name:      name,
		Namespace: flagNamespace,
		ListOnly:  flagList,
		Verbose:   flagVerbose,
		Long:      flagLong,
		JSON:      flagJSON,
		Context:   contextName,
	})

	if flagInteractive {
		return runPicker(ctx, reporter, contextName)
	}
	return reporter.Run(ctx)
}

// scanKinds resolves the TYPE argument to the kind set a run scans. With no
// TYPE the scan covers the built-in kinds plus any configured extras.
func scanKinds(args []string, extras []config.ExtraKind) ([]string, error) {
	if len(args) == 0 {
		kinds := append([]string(nil), kubectl.BuiltinKinds...)
		for _, extra := range extras {
			kind, ok := kubectl.ResolveKind(extra.Name)
			if ok && !slices.Contains(kinds, kind) {
				kinds = append(kinds, kind)
			}
		}
		return kinds, nil
	}
	kind, ok := kubectl.ResolveKind(args[0])
	if !ok {
		return nil, fmt.Errorf("unknown resource type %q (valid types: %s)",
			args[0], strings.Join(kubectl.KnownAliases(), ", "))
	}
	return []string{kind}, nil
}

// preflight probes the kubectl binary once so a missing install is reported
// up front instead of as a run of silent query failures.
func preflight(ctx context.Context, runner kubectl.Runner, tracer *tracelog.Logger) {
	start := time.Now()
	_, err := runner.Run(ctx, "version", "--client")
	tracer.Trace([]string{"version", "--client"}, time.Since(start), err)
	if err != nil && clierr.IsMissingBinary(err) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", clierr.Pretty(err))
	}
}

// getCurrentContext returns the current kubectl context name
func getCurrentContext() string {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	configOverrides := &clientcmd.ConfigOverrides{}
	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)

	rawConfig, err := kubeConfig.RawConfig()
	if err != nil {
		return "unknown"
	}

	if rawConfig.CurrentContext == "" {
		return "default"
	}

	return rawConfig.CurrentContext
}
