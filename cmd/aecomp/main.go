package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ivlev/aecomp/internal/config"
	"github.com/ivlev/aecomp/internal/engine"
	"github.com/ivlev/aecomp/internal/export"
	"github.com/ivlev/aecomp/internal/importer"
	"github.com/ivlev/aecomp/internal/scene"
	"github.com/ivlev/aecomp/internal/system"
	"github.com/ivlev/aecomp/internal/watch"
)

// version is set at build time: -ldflags "-X main.version=1.2.0".
var version = "dev"

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB000"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)

func infof(format string, args ...any) {
	fmt.Println(infoStyle.Render("[*] " + fmt.Sprintf(format, args...)))
}

func successf(format string, args ...any) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

func warnf(format string, args ...any) {
	fmt.Println(warnStyle.Render("[!] " + fmt.Sprintf(format, args...)))
}

func fatalf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("[-] "+fmt.Sprintf(format, args...)))
	os.Exit(1)
}

// levelFromFlags maps the verbosity flags to a log level; the most verbose
// flag wins and warnings are shown by default.
func levelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func main() {
	def := config.Default()
	opts := def.Import

	inputPtr := flag.String("input", "", "Путь к экспорту композиции .json или папке (по умолчанию: самый свежий файл в input/)")
	outputPtr := flag.String("output", "", "Путь к сцене (если пусто, генерируется автоматически в output/)")
	formatPtr := flag.String("format", def.Format, "Формат сцены: "+strings.Join(export.Formats, ", "))
	presetPtr := flag.String("preset", "", "Файл пресета настроек (.yaml или .toml)")
	baseScenePtr := flag.String("scene", "", "YAML-сцена предыдущего запуска, в которую добавляется импорт")
	scalePtr := flag.Float64("scale", opts.ScaleFactor, "Масштаб: единиц сцены на пиксель")
	fpsModePtr := flag.String("fps-mode", string(opts.HandleFramerate), "Частота кадров: preserve_frame_numbers, set_framerate, remap_times")
	sceneFPSPtr := flag.Int("scene-fps", def.SceneFPS, "FPS сцены до импорта")
	sceneFPSBasePtr := flag.Float64("scene-fps-base", def.SceneFPSBase, "Делитель FPS сцены (29.97 = 30000 / 1001)")
	centerPtr := flag.Bool("center", opts.CompCenterToOrigin, "Центр композиции в начало координат")
	resolutionPtr := flag.Bool("resolution", opts.UseCompResolution, "Взять разрешение и соотношение пикселей из композиции")
	collectionPtr := flag.Bool("collection", opts.CreateNewCollection, "Создать отдельную коллекцию для импорта")
	frameRangePtr := flag.Bool("frame-range", opts.AdjustFrameStartEnd, "Диапазон кадров по рабочей области композиции")
	markersPtr := flag.Bool("markers", opts.CamerasToMarkers, "Переключение камер маркерами")
	sensorFitPtr := flag.String("sensor-fit", string(opts.SensorFit), "Привязка сенсора: VERTICAL, HORIZONTAL")
	workersPtr := flag.Int("workers", def.Workers, "Потоки")
	watchPtr := flag.Bool("watch", false, "Следить за файлом и конвертировать при изменении")
	vPtr := flag.Bool("v", false, "Подробный лог")
	vvPtr := flag.Bool("vv", false, "Отладочный лог")
	qPtr := flag.Bool("q", false, "Только ошибки")
	versionPtr := flag.Bool("version", false, "Показать версию и выйти")

	flag.Parse()

	if *versionPtr {
		fmt.Println("aecomp", version)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromFlags(*vvPtr, *vPtr, *qPtr),
	}))
	slog.SetDefault(logger)

	cfg := config.Default()
	cfg.BuildVersion = version
	if *presetPtr != "" {
		if err := cfg.LoadPreset(*presetPtr); err != nil {
			fatalf("Ошибка пресета: %v", err)
		}
		infof("Используется пресет: %s", cfg.Preset)
	}
	if err := cfg.LoadEnv(".env"); err != nil {
		fatalf("Ошибка окружения: %v", err)
	}

	// Флаги, заданные явно, перекрывают пресет и окружение
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputPath = *inputPtr
		case "output":
			cfg.OutputPath = *outputPtr
		case "format":
			cfg.Format = *formatPtr
		case "scene":
			cfg.BaseScene = *baseScenePtr
		case "scale":
			cfg.Import.ScaleFactor = *scalePtr
		case "fps-mode":
			cfg.Import.HandleFramerate = importer.FrameratePolicy(*fpsModePtr)
		case "scene-fps":
			cfg.SceneFPS = *sceneFPSPtr
		case "scene-fps-base":
			cfg.SceneFPSBase = *sceneFPSBasePtr
		case "center":
			cfg.Import.CompCenterToOrigin = *centerPtr
		case "resolution":
			cfg.Import.UseCompResolution = *resolutionPtr
		case "collection":
			cfg.Import.CreateNewCollection = *collectionPtr
		case "frame-range":
			cfg.Import.AdjustFrameStartEnd = *frameRangePtr
		case "markers":
			cfg.Import.CamerasToMarkers = *markersPtr
		case "sensor-fit":
			cfg.Import.SensorFit = scene.SensorFit(strings.ToUpper(*sensorFitPtr))
		case "workers":
			cfg.Workers = *workersPtr
		case "watch":
			cfg.Watch = *watchPtr
		}
	})
	cfg.Inputs = append(cfg.Inputs, flag.Args()...)
	if err := cfg.ExpandPaths(); err != nil {
		fatalf("Ошибка: %v", err)
	}

	// Создаем нужные директории, если их нет
	for _, d := range []string{cfg.InputDir, cfg.OutputDir} {
		os.MkdirAll(d, 0755)
	}

	inputs := cfg.AllInputs()
	if len(inputs) == 0 {
		latest, err := system.FindLatestExport(cfg.InputDir)
		if err != nil {
			fatalf("Ошибка: %v. Положите экспорт композиции в %s/", err, cfg.InputDir)
		}
		cfg.InputPath = latest
		inputs = []string{latest}
		infof("Выбран файл: %s", latest)
	}
	inputs, err := system.ExpandInputs(inputs)
	if err != nil {
		fatalf("Ошибка: %v", err)
	}
	if len(inputs) > 1 || cfg.Watch {
		system.RaiseFileLimit(2048, logger)
	}

	project, err := engine.New(cfg, logger)
	if err != nil {
		fatalf("Ошибка настроек: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Watch {
		if len(inputs) != 1 {
			fatalf("Ошибка: -watch работает только с одним файлом, получено %d", len(inputs))
		}
		infof("Слежение за %s (Ctrl+C для выхода)", inputs[0])
		err := watch.Run(ctx, inputs[0], watch.DefaultDebounce, func(ctx context.Context) error {
			res, err := project.Run(ctx, inputs[0])
			if err != nil {
				return err
			}
			report(res)
			return nil
		}, logger)
		if err != nil {
			fatalf("Ошибка слежения: %v", err)
		}
		return
	}

	if len(inputs) > 1 {
		infof("Файлов: %d, потоков: %d", len(inputs), cfg.Workers)
	}
	results, err := project.RunAll(ctx, inputs)
	if err != nil {
		fatalf("Ошибка конвертации: %v", err)
	}

	converted := 0
	for _, res := range results {
		report(res)
		if !res.Cancelled {
			converted++
		}
	}
	switch {
	case converted == 1 && len(results) == 1:
		successf("[+++] Успех! Результат: %s", results[0].Output)
	case converted > 0:
		successf("[+++] Успех! Сконвертировано файлов: %d из %d (%s)", converted, len(results), cfg.OutputDir)
	}
}

func report(res *engine.Result) {
	if res == nil {
		return
	}
	if res.Cancelled {
		warnf("%s: импорт отменён: %s", res.Input, res.Warning)
		return
	}
	successf("[+] %s -> %s (объектов: %d, кривых: %d, маркеров: %d, %.2fs)",
		res.Input, res.Output, res.Objects, res.Curves, res.Markers, res.Elapsed.Seconds())
}
