package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/bjornaa/postladim"
	"github.com/bjornaa/postladim/cellcount"
	"github.com/bjornaa/postladim/release"

	plt "github.com/phil-mansfield/pyplot"
)

type config struct {
	CellCount struct {
		I0, I1, J0, J1 int
		XVar, YVar     string
		WeightVar      string
	}
	Trajectory struct {
		System string
	}
	Release struct {
		XCol, YCol int
	}
}

func defaultConfig() *config {
	con := &config{}
	con.CellCount.XVar = "X"
	con.CellCount.YVar = "Y"
	con.Release.XCol = 1
	con.Release.YCol = 2
	return con
}

func main() {
	var (
		configPath, plotPath, outPath string
		info                          bool
		trajectory, timeIdx           int
		cellCount                     bool
		releasePath                   string
	)

	flag.StringVar(&configPath, "Config", "",
		"Location of a config file. Default is built-in settings.")
	flag.StringVar(&plotPath, "Plot", "",
		"Location to write a trajectory plot to.")
	flag.StringVar(&outPath, "Out", "",
		"Location to write cell counts to. Default is stdout.")

	flag.BoolVar(&info, "Info", false,
		"Print a summary of the particle file.")
	flag.IntVar(&trajectory, "Trajectory", -1,
		"Extract the trajectory of the particle with the given pid.")
	flag.BoolVar(&cellCount, "CellCount", false,
		"Count particles per grid cell at one time step.")
	flag.IntVar(&timeIdx, "Time", -1,
		"Time step for -CellCount. Default is the last step.")
	flag.StringVar(&releasePath, "ReleaseCount", "",
		"Count release positions per grid cell from the given release file.")

	flag.Parse()

	con := defaultConfig()
	if configPath != "" {
		if err := gcfg.ReadFileInto(con, configPath); err != nil {
			log.Fatal(err.Error())
		}
	}

	modeName := checkMode(info, trajectory >= 0, cellCount, releasePath != "")

	if releasePath != "" {
		releaseCountMain(con, releasePath, outPath)
		return
	}

	if len(flag.Args()) != 1 {
		log.Fatalf("Mode %s requires a particle file argument.", modeName)
	}
	path := flag.Args()[0]

	err := postladim.WithParticleFile(path, func(pf *postladim.ParticleFile) error {
		switch {
		case info:
			fmt.Print(pf.String())
		case trajectory >= 0:
			return trajectoryMain(con, pf, trajectory, plotPath)
		case cellCount:
			return cellCountMain(con, pf, timeIdx, outPath)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err.Error())
	}
}

// checkMode requires that exactly one mode flag is set.
func checkMode(info, trajectory, cellCount, releaseCount bool) string {
	names := []string{}
	if info {
		names = append(names, "Info")
	}
	if trajectory {
		names = append(names, "Trajectory")
	}
	if cellCount {
		names = append(names, "CellCount")
	}
	if releaseCount {
		names = append(names, "ReleaseCount")
	}
	if len(names) != 1 {
		log.Fatalf(
			"Need exactly one of -Info, -Trajectory, -CellCount, "+
				"-ReleaseCount, got %d.", len(names),
		)
	}
	return names[0]
}

func trajectoryMain(con *config, pf *postladim.ParticleFile, pid int, plotPath string) error {
	tr, err := pf.Trajectory(pid, con.Trajectory.System)
	if err != nil {
		return err
	}
	if plotPath == "" {
		for k := range tr.X.Values {
			fmt.Printf("%s  %g  %g\n",
				tr.X.Time[k].Format("2006-01-02T15:04:05"),
				tr.X.Values[k], tr.Y.Values[k])
		}
		return nil
	}

	plt.Figure(plt.FigSize(8, 8))
	plt.Plot(tr.X.Values, tr.Y.Values, "b", plt.LW(2))
	plt.Title(fmt.Sprintf("Trajectory of particle %d", pid))
	plt.XLabel("X", plt.FontSize(16))
	plt.YLabel("Y", plt.FontSize(16))
	plt.SaveFig(plotPath)
	plt.Execute()
	return nil
}

func cellCountMain(con *config, pf *postladim.ParticleFile, timeIdx int, outPath string) error {
	if timeIdx < 0 {
		timeIdx = pf.NumTimes - 1
	}
	pos, err := pf.Position(timeIdx, "")
	if err != nil {
		return err
	}

	var weights []float64
	if con.CellCount.WeightVar != "" {
		wv, err := pf.InstanceVar(con.CellCount.WeightVar)
		if err != nil {
			return err
		}
		w, err := wv.Isel(timeIdx)
		if err != nil {
			return err
		}
		weights = w.Values
	}

	field, err := cellcount.Count(pos.X.Values, pos.Y.Values, weights, limits(con))
	if err != nil {
		return err
	}
	return writeField(field, outPath)
}

func releaseCountMain(con *config, path, outPath string) {
	xs, ys, err := release.ReadPositions(path, con.Release.XCol, con.Release.YCol)
	if err != nil {
		log.Fatal(err.Error())
	}
	field, err := cellcount.Count(xs, ys, nil, limits(con))
	if err != nil {
		log.Fatal(err.Error())
	}
	if err := writeField(field, outPath); err != nil {
		log.Fatal(err.Error())
	}
}

// limits reads the grid limits out of the config, nil when unset.
func limits(con *config) *cellcount.Limits {
	c := con.CellCount
	if c.I0 == 0 && c.I1 == 0 && c.J0 == 0 && c.J1 == 0 {
		return nil
	}
	return &cellcount.Limits{I0: c.I0, I1: c.I1, J0: c.J0, J1: c.J1}
}

// writeField writes the counts as a whitespace table, one row per Y
// cell, northernmost row first.
func writeField(field *cellcount.Field, outPath string) error {
	var b strings.Builder
	for j := len(field.Y) - 1; j >= 0; j-- {
		for i := range field.X {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%g", field.Counts[j][i])
		}
		b.WriteByte('\n')
	}
	if outPath == "" {
		fmt.Print(b.String())
		return nil
	}
	return os.WriteFile(outPath, []byte(b.String()), 0644)
}
