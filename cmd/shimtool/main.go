package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	drivershim "github.com/hmdtools/drivershim"
)

var (
	cfgFile string
	width   uint32
	height  uint32
)

func main() {
	root := &cobra.Command{
		Use:   "shimtool",
		Short: "Inspect and validate distortion shim settings",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (yaml/json/toml)")
	root.PersistentFlags().Uint32Var(&width, "width", 2064, "eye viewport width in pixels")
	root.PersistentFlags().Uint32Var(&height, "height", 2208, "eye viewport height in pixels")

	root.AddCommand(checkCmd(), gridCmd(), schemaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadEngine() (*drivershim.DistortionEngine, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("--config is required")
	}
	settings, err := drivershim.NewViperSettings(cfgFile)
	if err != nil {
		return nil, err
	}
	engine := drivershim.NewDistortionEngine(settings, drivershim.SettingsSection)
	vp := drivershim.Viewport{Width: width, Height: height}
	engine.Reload([drivershim.NumEyes]drivershim.Viewport{vp, vp})
	return engine, nil
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load a settings file and print the resolved per-channel model",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine()
			if err != nil {
				return err
			}
			model, ok := engine.Model()
			if !ok {
				return fmt.Errorf("no model loaded")
			}
			for eye := drivershim.Eye(0); eye < drivershim.NumEyes; eye++ {
				for ch := drivershim.Channel(0); ch < drivershim.NumChannels; ch++ {
					p := model[eye][ch]
					fmt.Printf("%s/%s: cod=(%.2f, %.2f) k1=%g k2=%g k3=%g\n",
						eye, ch, p.CodX, p.CodY, p.K1, p.K2, p.K3)
				}
			}
			return nil
		},
	}
}

func gridCmd() *cobra.Command {
	var eyeName string
	var samples int

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Dump a CSV remap grid for one eye",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine()
			if err != nil {
				return err
			}
			eye := drivershim.EyeLeft
			if eyeName == "right" {
				eye = drivershim.EyeRight
			}
			if samples < 2 {
				samples = 2
			}

			vp := drivershim.Viewport{Width: width, Height: height}
			proj := drivershim.RawProjection{Left: -1, Right: 1, Top: -1, Bottom: 1}

			fmt.Println("u,v,red_x,red_y,green_x,green_y,blue_x,blue_y")
			for j := 0; j < samples; j++ {
				for i := 0; i < samples; i++ {
					u := float64(i) / float64(samples-1)
					v := float64(j) / float64(samples-1)
					coords, ok := engine.Compute(eye, u, v, vp, proj)
					if !ok {
						return fmt.Errorf("distortion model unusable (degenerate apertures?)")
					}
					fmt.Printf("%.4f,%.4f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
						u, v,
						coords.Red[0], coords.Red[1],
						coords.Green[0], coords.Green[1],
						coords.Blue[0], coords.Blue[1])
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&eyeName, "eye", "left", "eye to sample (left|right)")
	cmd.Flags().IntVar(&samples, "samples", 9, "grid samples per axis")
	return cmd
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the settings schema the shim publishes",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(string(drivershim.DistortionSettingsSchema().JSON()))
		},
	}
}
