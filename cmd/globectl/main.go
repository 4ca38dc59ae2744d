// globectl is a terminal front end for a running weather-globe proxy.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-globe/internal/dashboard"
	"github.com/i474232898/weather-globe/internal/globe"
)

const defaultServer = "http://localhost:8080"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "show":
		cmdShow(args)
	case "pick":
		cmdPick(args)
	case "sun":
		cmdSun(args)
	case "daynight":
		cmdDayNight(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`globectl - weather globe terminal client

Usage:
  globectl <command> [options]

Commands:
  show [-server URL] [-days N] <location>   Weather, forecast and cover image for a location
  pick [-server URL] <lat> <lng>            Double-click a point on the globe and load it
  sun [-server URL]                         Current sun direction and light intensity
  daynight [-width N] <out.png>             Render the day/night map locally

Examples:
  globectl show Paris
  globectl show -days 3 "New York"
  globectl pick -33.87 151.21
  globectl daynight -width 1024 earth.png`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func newSession(server string, days int) *dashboard.Session {
	client := dashboard.NewClient(server, &http.Client{Timeout: 30 * time.Second})
	s, err := dashboard.NewSession(dashboard.Options{
		Fetcher:      client,
		ForecastDays: days,
	})
	if err != nil {
		fail(err)
	}
	return s
}

// waitSession waits for loads to settle or for Ctrl-C.
func waitSession(s *dashboard.Session) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.Close()
		<-done
		os.Exit(130)
	}
}

func cmdShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	server := fs.String("server", defaultServer, "proxy base URL")
	days := fs.Int("days", 7, "forecast days (1-14)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: globectl show [-server URL] [-days N] <location>")
		os.Exit(1)
	}

	s := newSession(*server, *days)
	defer s.Close()

	s.Search(strings.Join(fs.Args(), " "))
	waitSession(s)
	printView(s)
}

func cmdPick(args []string) {
	fs := flag.NewFlagSet("pick", flag.ExitOnError)
	server := fs.String("server", defaultServer, "proxy base URL")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: globectl pick [-server URL] <lat> <lng>")
		os.Exit(1)
	}
	lat, err := strconv.ParseFloat(fs.Arg(0), 64)
	if err != nil {
		fail(fmt.Errorf("invalid lat: %w", err))
	}
	lng, err := strconv.ParseFloat(fs.Arg(1), 64)
	if err != nil {
		fail(fmt.Errorf("invalid lng: %w", err))
	}
	if err := (globe.GeoCoordinate{Lat: lat, Lng: lng}).Validate(); err != nil {
		fail(err)
	}

	s := newSession(*server, 0)
	defer s.Close()

	// Two clicks on the same surface point, well inside the double-click window.
	now := time.Now()
	world := s.Scene().LocalToWorld(globe.LatLngToVector3(lat, lng, 1))
	s.Pick(world, now)
	picked, ok := s.Pick(world, now.Add(globe.DoubleClickWindow/3))
	if !ok {
		fail(fmt.Errorf("pick did not register"))
	}
	fmt.Printf("Picked:    %s\n", picked)

	waitSession(s)
	printView(s)
}

func cmdSun(args []string) {
	fs := flag.NewFlagSet("sun", flag.ExitOnError)
	server := fs.String("server", defaultServer, "proxy base URL")
	fs.Parse(args)

	client := dashboard.NewClient(*server, &http.Client{Timeout: 10 * time.Second})
	sun, err := client.Sun(context.Background())
	if err != nil {
		fail(err)
	}
	printSun(sun)
}

func cmdDayNight(args []string) {
	fs := flag.NewFlagSet("daynight", flag.ExitOnError)
	width := fs.Int("width", 512, "image width in pixels")
	day := fs.String("day", "", "day texture path")
	night := fs.String("night", "", "night texture path")
	spec := fs.String("specular", "", "specular mask path")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: globectl daynight [-width N] <out.png>")
		os.Exit(1)
	}
	if *width < globe.MinMapWidth || *width > globe.MaxMapWidth {
		fail(fmt.Errorf("width must be between %d and %d", globe.MinMapWidth, globe.MaxMapWidth))
	}

	tex, err := globe.LoadTextures(*day, *night, *spec)
	if err != nil {
		fail(err)
	}

	sun := globe.ComputeSun(time.Now())
	img := globe.RenderDayNightMap(tex, sun.Direction, *width)

	f, err := os.Create(fs.Arg(0))
	if err != nil {
		fail(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		fail(err)
	}

	b := img.Bounds()
	fmt.Printf("Wrote %s (%dx%d)\n", fs.Arg(0), b.Dx(), b.Dy())
	printSun(sun)
}

func printView(s *dashboard.Session) {
	v := s.View()

	fmt.Printf("Query:     %s\n", v.Query)
	if v.Place != "" {
		fmt.Printf("Place:     %s\n", v.Place)
	}

	if v.Current != nil {
		cur := v.Current.Current
		fmt.Printf("Location:  %s, %s (%.2f, %.2f)\n",
			v.Current.Location.Name, v.Current.Location.Country, v.Current.Location.Lat, v.Current.Location.Lon)
		fmt.Printf("Now:       %.1f°C (feels %.1f°C), %s [%s]\n",
			cur.TempC, cur.FeelsLikeC, cur.Condition.Text, v.Current.Condition)
		fmt.Printf("           humidity %.0f%%, wind %.0f km/h %s, pressure %.0f mb, UV %.1f\n",
			cur.Humidity, cur.WindKph, cur.WindDir, cur.PressureMb, cur.UV)
	}

	if v.Forecast != nil && len(v.Forecast.Days) > 0 {
		fmt.Println("Forecast:")
		for _, d := range v.Forecast.Days {
			fmt.Printf("  %s  %5.1f / %5.1f°C  rain %3.0f%%  %s\n",
				d.Date, d.Day.MinTempC, d.Day.MaxTempC, d.Day.DailyChanceOfRain, d.Day.Condition.Text)
		}
	}

	if cover, ok := v.Cover(); ok {
		fmt.Printf("Cover:     %s\n", cover)
	}

	for kind, msg := range v.Errors {
		fmt.Printf("Error:     %s: %s\n", kind, msg)
	}

	if c, ok := s.Scene().Selected(); ok {
		o := globe.TargetFor(c)
		fmt.Printf("Target:    x=%.1f° y=%.1f°\n", o.X*180/math.Pi, o.Y*180/math.Pi)
	}
	printSun(v.Sun)
}

func printSun(s globe.SunState) {
	fmt.Printf("Sun:       (%.3f, %.3f, %.3f) intensity %.2f\n",
		s.Direction.X, s.Direction.Y, s.Direction.Z, s.Intensity)
}
