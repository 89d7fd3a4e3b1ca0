package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/photoshow/internal/analyzer"
	"github.com/ivlev/photoshow/internal/config"
	"github.com/ivlev/photoshow/internal/effects"
	"github.com/ivlev/photoshow/internal/engine"
	"github.com/ivlev/photoshow/internal/progress"
	"github.com/ivlev/photoshow/internal/scene"
	"github.com/ivlev/photoshow/internal/show"
	"github.com/ivlev/photoshow/internal/source"
	"github.com/ivlev/photoshow/internal/system"
)

// version задается при сборке: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Создаем нужные директории, если их нет
	dirs := []string{show.DefaultDir, "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	defaults := config.Default()

	showPtr := flag.String("show", "", "Путь к сценарию YAML (по умолчанию: самый свежий файл в "+show.DefaultDir+")")
	outputPtr := flag.String("output", "", "Путь к таймлайну YAML (если пусто, генерируется автоматически в output/)")
	widthPtr := flag.Int("width", defaults.Width, "Ширина")
	heightPtr := flag.Int("height", defaults.Height, "Высота")
	fpsPtr := flag.Float64("fps", defaults.FPS, "FPS")
	hqPtr := flag.Bool("hq", defaults.HighQuality, "Покадровая растеризация при масштабировании и повороте")
	lazyPtr := flag.String("lazy-dir", "", "Папка для кадров высокого качества (по умолчанию: системная временная папка)")
	workersPtr := flag.Int("workers", system.DefaultWorkers(), "Потоки")
	chunkPtr := flag.Int("chunk", defaults.ReserveChunk, "Сколько слоев резервировать за раз")
	libraryPtr := flag.String("library", "", "Библиотека фигур YAML (по умолчанию: встроенная)")
	eventsPtr := flag.String("events", "", "Имя обработчика событий showBegin/photoN/showEnd")
	presetPtr := flag.String("preset", "", "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")
	verbosePtr := flag.Bool("v", false, "Подробный лог")
	listPtr := flag.Bool("list", false, "Показать доступные переходы и эффекты")
	generatePtr := flag.String("generate", "", "Создать сценарий по папке с фотографиями")
	detectorPtr := flag.String("detector", "edges", "Поиск фокуса для -generate: edges, center")

	flag.Parse()

	if *listPtr {
		fmt.Printf("Переходы: %s\n", strings.Join(effects.BeginTransitions(), ", "))
		fmt.Printf("Эффекты: %s\n", strings.Join(effects.EffectNames(), ", "))
		return
	}

	width, height := *widthPtr, *heightPtr
	switch *presetPtr {
	case "16:9":
		width, height = 1280, 720
	case "9:16":
		width, height = 720, 1280
	case "4:5":
		width, height = 1080, 1350
	}

	level := slog.LevelWarn
	if *verbosePtr {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *generatePtr != "" {
		if err := generate(ctx, *generatePtr, *detectorPtr, width, height, *workersPtr); err != nil {
			log.Fatalf("[-] Ошибка генерации сценария: %v", err)
		}
		return
	}

	showPath := *showPtr
	if showPath == "" {
		latest, err := system.FindLatestShow(show.DefaultDir)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите сценарий в %s/ или используйте -generate", err, show.DefaultDir)
		}
		showPath = latest
		fmt.Printf("[*] Выбран сценарий: %s\n", showPath)
	}

	s, err := show.ReadShow(showPath)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения сценария: %v", err)
	}

	finalOutput := *outputPtr
	if finalOutput == "" {
		baseName := filepath.Base(showPath)
		nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
		cleanName := strings.ReplaceAll(nameOnly, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		finalOutput = filepath.Join("output", fmt.Sprintf("%s_%s.yaml", cleanName, timestamp))
	}

	cfg := engine.Merge(&config.Config{
		ShowPath:     showPath,
		OutputPath:   finalOutput,
		Width:        width,
		Height:       height,
		FPS:          *fpsPtr,
		HighQuality:  *hqPtr,
		LazyDir:      *lazyPtr,
		Workers:      *workersPtr,
		ReserveChunk: *chunkPtr,
		BaseDepth:    defaults.BaseDepth,
		LibraryPath:  *libraryPtr,
		EventHandler: *eventsPtr,
		ShowStats:    *statsPtr,
		BuildVersion: version,
	}, s)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Ошибка настроек: %v", err)
	}

	if err := run(ctx, cfg, s, logger); err != nil {
		if errors.Is(err, progress.ErrCanceled) {
			log.Fatalf("[-] Компиляция отменена, результат не сохранен")
		}
		log.Fatalf("[-] Ошибка компиляции: %v", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputPath)
}

func run(ctx context.Context, cfg *config.Config, s *show.Show, logger *slog.Logger) error {
	startTime := time.Now()

	lib := scene.DefaultLibrary()
	if cfg.LibraryPath != "" {
		var err error
		lib, err = scene.LoadLibrary(cfg.LibraryPath)
		if err != nil {
			return fmt.Errorf("библиотека фигур: %w", err)
		}
	}

	compiler := engine.NewCompiler(cfg, lib, logger)

	var lazy *source.LazyStore
	if cfg.HighQuality {
		// кадры уходят на диск, в памяти только растеризуемый буфер на поток
		need := system.FrameBytes(cfg.Width, cfg.Height) * uint64(cfg.Workers+1)
		if err := system.CheckMemory(need); err != nil {
			fmt.Printf("[!] Мало памяти для режима высокого качества: %v\n", err)
		}

		var err error
		lazy, err = source.NewLazyStore(cfg.LazyDir)
		if err != nil {
			return err
		}
		compiler.Store = lazy
		fmt.Printf("[*] Кадры высокого качества пишутся в %s\n", lazy.Dir())
	}

	fmt.Printf("[*] Фотографий: %d, кадр %dx%d, %.2f FPS, длительность ~%.1fs\n",
		len(s.Photos), cfg.Width, cfg.Height, cfg.FPS, s.Duration())

	lastPercent := -1
	listener := func(f float64) {
		if p := int(f * 100); p != lastPercent {
			lastPercent = p
			fmt.Printf("\r[*] Компиляция: %3d%%", p)
		}
	}

	tl := scene.NewTimeline(cfg.Stage())
	st, err := compiler.Compile(ctx, s, tl, listener)
	fmt.Println()
	if err != nil {
		if lazy != nil {
			if cerr := lazy.Cleanup(); cerr != nil {
				fmt.Printf("[!] Не удалось удалить %s: %v\n", lazy.Dir(), cerr)
			}
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return err
	}
	if err := tl.WriteYAML(f); err != nil {
		f.Close()
		return fmt.Errorf("запись таймлайна: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if st.Skipped > 0 {
		fmt.Printf("[!] Пропущено фотографий без длительности: %d\n", st.Skipped)
	}
	if st.ResourceErrors > 0 {
		fmt.Printf("[!] Фотографий заменено заглушкой: %d\n", st.ResourceErrors)
	}

	if cfg.ShowStats {
		totalTime := time.Since(startTime)
		report := fmt.Sprintf(
			"--- [PERFORMANCE REPORT] ---\n"+
				"Build: %s\n"+
				"Total Time: %.2fs\n"+
				"Photos: %d (HQ: %d)\n"+
				"Frames: %d\n"+
				"Depth growths: %d\n"+
				"Effective FPS: %.2f\n",
			cfg.BuildVersion, totalTime.Seconds(), st.Photos, st.HighQuality, st.Frames, st.DepthGrowths,
			float64(st.Frames)/totalTime.Seconds(),
		)
		if mem, err := system.ReadMemory(); err == nil {
			report += fmt.Sprintf("Memory: %d/%d MB available (%.1f%% used)\n", mem.Available>>20, mem.Total>>20, mem.UsedPercent)
		}
		report += "----------------------------\n"
		fmt.Print(report)
	}
	return nil
}

func generate(ctx context.Context, dir, variant string, width, height, workers int) error {
	photos, err := show.ListPhotos(dir)
	if err != nil {
		return err
	}
	detector, err := analyzer.NewDetector(variant)
	if err != nil {
		return err
	}

	fmt.Printf("[*] Анализ %d фотографий...\n", len(photos))
	director := show.NewDirector(width, height, detector)
	director.Workers = workers
	s, err := director.GenerateShow(ctx, photos)
	if err != nil {
		return err
	}

	path := show.GenerateShowPath(show.DefaultDir)
	if err := show.WriteShow(s, path); err != nil {
		return err
	}
	fmt.Printf("[+++] Сценарий сохранен: %s\n", path)
	return nil
}
