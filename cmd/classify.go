package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/py-react/cloud-ops-sub002/internal/metrics"
	"github.com/py-react/cloud-ops-sub002/internal/status"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

var classifyFlags struct {
	kind string
}

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Classify a controller status document read from file or stdin",
	Long: `Classify reads either a bare status block or a whole object (YAML or
JSON) and prints its lifecycle state. For whole objects the kind is taken
from the document unless --kind is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := io.Reader(os.Stdin)
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		raw, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		state, kind, err := classifyDocument(raw, classifyFlags.kind)
		if err != nil {
			return err
		}
		label, known := status.ParseKind(kind)
		if !known {
			label = "other"
		}
		metrics.Classifications.WithLabelValues(string(label), string(state)).Inc()
		fmt.Fprintln(cmd.OutOrStdout(), state)
		return nil
	},
}

// classifyDocument accepts a status block or a whole object. It returns the
// state and the kind that was used.
func classifyDocument(raw []byte, kind string) (status.LifecycleState, string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return "", "", fmt.Errorf("parse document: %w", err)
	}
	if inner, ok := doc["status"].(map[string]any); ok {
		obj := &unstructured.Unstructured{Object: doc}
		if kind != "" {
			return status.Classify(kind, inner), kind, nil
		}
		if obj.GetKind() == "" {
			return "", "", fmt.Errorf("--kind is required: the document has no kind")
		}
		return status.ClassifyObject(obj), obj.GetKind(), nil
	}
	if kind == "" {
		return "", "", fmt.Errorf("--kind is required for a bare status document")
	}
	return status.Classify(kind, doc), kind, nil
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyFlags.kind, "kind", "k", "", "Controller kind (deployment, statefulset, daemonset, replicaset)")
}
