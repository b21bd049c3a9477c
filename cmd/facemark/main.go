// Package main is the facemark command line tool. It runs face landmark
// models against image files and camera devices.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	fp "path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	ort "github.com/yalue/onnxruntime_go"
	"go.viam.com/utils"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"github.com/edgevision/facemark/facelandmarker"
	"github.com/edgevision/facemark/landmark"
	"github.com/edgevision/facemark/logging"
	inf "github.com/edgevision/facemark/ml/inference"
	"github.com/edgevision/facemark/vimage"

	// registers the built-in engines.
	_ "github.com/edgevision/facemark/engine/onnx"
	_ "github.com/edgevision/facemark/engine/tflitecpu"
)

const (
	// Flags.
	flagModel         = "model"
	flagEngine        = "engine"
	flagNumFaces      = "num-faces"
	flagMinDetection  = "min-detection-confidence"
	flagMinPresence   = "min-presence-confidence"
	flagBlendshapes   = "blendshapes"
	flagMatrixes      = "matrixes"
	flagLabels        = "labels"
	flagOnnxLibrary   = "onnx-library"
	flagPlot          = "plot"
	flagJSON          = "json"
	flagCamera        = "camera"
	flagFrames        = "frames"
	flagEveryNthFrame = "every-nth-frame"
)

var logger = logging.NewLogger("facemark")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, _ logging.Logger) error {
	app := &cli.App{
		Name:            "facemark",
		Usage:           "run face landmark models against images and cameras",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logger = logging.NewDebugLogger("facemark")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "detect",
				Usage:     "detect face landmarks in an image file",
				ArgsUsage: "<image>",
				Flags: append(modelFlags(),
					&cli.PathFlag{
						Name:  flagPlot,
						Usage: "write a copy of the image with landmarks drawn on it to `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagJSON,
						Usage: "print the full result as JSON",
					},
				),
				Action: DetectAction,
			},
			{
				Name:  "watch",
				Usage: "stream a camera device through a face landmark model",
				Flags: append(modelFlags(),
					&cli.IntFlag{
						Name:  flagCamera,
						Value: 0,
						Usage: "camera device ID",
					},
					&cli.IntFlag{
						Name:  flagFrames,
						Value: 0,
						Usage: "stop after this many frames, 0 means run until interrupted",
					},
					&cli.IntFlag{
						Name:  flagEveryNthFrame,
						Value: 1,
						Usage: "run detection on every nth camera frame",
					},
				),
				Action: WatchAction,
			},
			{
				Name:      "info",
				Usage:     "print input and output tensor info for a model file",
				ArgsUsage: "<model>",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:  flagOnnxLibrary,
						Usage: "path to the onnxruntime shared library",
					},
				},
				Action: InfoAction,
			},
		},
	}
	return app.RunContext(ctx, args)
}

func modelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.PathFlag{
			Name:     flagModel,
			Aliases:  []string{"m"},
			Required: true,
			Usage:    "path of the face landmark model `FILE`",
		},
		&cli.StringFlag{
			Name:  flagEngine,
			Usage: "engine name to use instead of resolving one from the model extension",
		},
		&cli.IntFlag{
			Name:  flagNumFaces,
			Value: 1,
			Usage: "maximum number of faces to detect",
		},
		&cli.Float64Flag{
			Name:  flagMinDetection,
			Value: 0.5,
			Usage: "minimum face detection confidence",
		},
		&cli.Float64Flag{
			Name:  flagMinPresence,
			Value: 0.5,
			Usage: "minimum face presence confidence",
		},
		&cli.BoolFlag{
			Name:  flagBlendshapes,
			Usage: "output blendshape scores per face",
		},
		&cli.BoolFlag{
			Name:  flagMatrixes,
			Usage: "output a facial transformation matrix per face",
		},
		&cli.PathFlag{
			Name:  flagLabels,
			Usage: "path of a blendshape label `FILE`, one label per line",
		},
		&cli.PathFlag{
			Name:  flagOnnxLibrary,
			Usage: "path to the onnxruntime shared library",
		},
	}
}

func optionsFromFlags(c *cli.Context, mode facelandmarker.RunningMode) *facelandmarker.Options {
	opts := facelandmarker.DefaultOptions(c.Path(flagModel))
	opts.RunningMode = mode
	opts.NumFaces = c.Int(flagNumFaces)
	opts.MinFaceDetectionConfidence = c.Float64(flagMinDetection)
	opts.MinFacePresenceConfidence = c.Float64(flagMinPresence)
	opts.OutputBlendshapes = c.Bool(flagBlendshapes)
	opts.OutputTransformationMatrixes = c.Bool(flagMatrixes)
	opts.EngineName = c.String(flagEngine)
	opts.Logger = logger

	attrs := map[string]interface{}{}
	if labels := c.Path(flagLabels); labels != "" {
		attrs["blendshape_label_path"] = labels
	}
	if lib := c.Path(flagOnnxLibrary); lib != "" {
		attrs["library_path"] = lib
	}
	if len(attrs) > 0 {
		opts.EngineAttributes = attrs
	}
	return opts
}

// DetectAction runs a model against a single image file.
func DetectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected one image file argument")
	}

	f, err := os.Open(fp.Clean(c.Args().First()))
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	utils.UncheckedError(f.Close())
	if err != nil {
		return errors.Wrapf(err, "could not decode image %s", c.Args().First())
	}

	lm, err := facelandmarker.NewFromOptions(c.Context, optionsFromFlags(c, facelandmarker.RunningModeImage))
	if err != nil {
		return err
	}
	defer func() {
		utils.UncheckedError(lm.Close(context.Background()))
	}()

	res, err := lm.Detect(c.Context, vimage.NewFromImage(img, vimage.OrientationUp))
	if err != nil {
		return err
	}

	if c.Bool(flagJSON) {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(out))
	} else {
		printResult(c, res, img.Bounds().Dx(), img.Bounds().Dy())
	}

	if out := c.Path(flagPlot); out != "" {
		if err := landmark.Plot(img, res.FaceLandmarks, out); err != nil {
			return errors.Wrapf(err, "could not write %s", out)
		}
		fmt.Fprintf(c.App.Writer, "wrote %s\n", out)
	}
	return nil
}

func printResult(c *cli.Context, res *facelandmarker.Result, width, height int) {
	fmt.Fprintf(c.App.Writer, "faces: %d\n", len(res.FaceLandmarks))
	for i, set := range res.FaceLandmarks {
		nose := set.PixelPoint(landmark.LandmarkNoseTip, width, height)
		bounds := set.Bounds(width, height)
		fmt.Fprintf(c.App.Writer, "face %d: %d points, nose tip (%d, %d), bounds %v\n",
			i, len(set), nose.X, nose.Y, bounds)
		if i < len(res.FaceBlendshapes) {
			for _, cat := range res.FaceBlendshapes[i].TopN(3) {
				fmt.Fprintf(c.App.Writer, "  %s: %.3f\n", cat.Label, cat.Score)
			}
		}
		if i < len(res.FacialTransformationMatrixes) {
			fm := mat.Formatted(res.FacialTransformationMatrixes[i], mat.Prefix("  "), mat.Squeeze())
			fmt.Fprintf(c.App.Writer, "  pose:\n  %v\n", fm)
		}
	}
}

// WatchAction feeds camera frames through a model in video running mode.
func WatchAction(c *cli.Context) error {
	lm, err := facelandmarker.NewFromOptions(c.Context, optionsFromFlags(c, facelandmarker.RunningModeVideo))
	if err != nil {
		return err
	}
	defer func() {
		utils.UncheckedError(lm.Close(context.Background()))
	}()

	deviceID := c.Int(flagCamera)
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return errors.Wrapf(err, "failed to open camera %d", deviceID)
	}
	defer utils.UncheckedErrorFunc(webcam.Close)

	frame := gocv.NewMat()
	defer utils.UncheckedErrorFunc(frame.Close)
	bgra := gocv.NewMat()
	defer utils.UncheckedErrorFunc(bgra.Close)

	start := time.Now()
	maxFrames := c.Int(flagFrames)
	every := c.Int(flagEveryNthFrame)
	if every < 1 {
		every = 1
	}
	for n := 0; maxFrames == 0 || n < maxFrames; n++ {
		if c.Context.Err() != nil {
			return nil
		}
		if ok := webcam.Read(&frame); !ok {
			return errors.Errorf("cannot read camera device %d", deviceID)
		}
		if frame.Empty() || n%every != 0 {
			continue
		}
		gocv.CvtColor(frame, &bgra, gocv.ColorBGRToBGRA)

		ts := time.Since(start).Milliseconds()
		img, err := vimage.NewFromSampleBuffer(
			bgra.ToBytes(), vimage.FormatBGRA32, bgra.Cols(), bgra.Rows(), 0, vimage.OrientationUp, ts,
		)
		if err != nil {
			return err
		}

		res, err := lm.DetectForVideo(c.Context, img, ts)
		if err != nil {
			var seqErr *facelandmarker.SequencingError
			if errors.As(err, &seqErr) {
				// the camera delivered two frames in the same millisecond
				logger.Debugw("skipping frame", "timestamp_ms", ts)
				continue
			}
			return err
		}

		if len(res.FaceLandmarks) == 0 {
			fmt.Fprintf(c.App.Writer, "%6dms: no faces\n", ts)
			continue
		}
		nose := res.FaceLandmarks[0].PixelPoint(landmark.LandmarkNoseTip, bgra.Cols(), bgra.Rows())
		fmt.Fprintf(c.App.Writer, "%6dms: %d face(s), nose tip (%d, %d)\n",
			ts, len(res.FaceLandmarks), nose.X, nose.Y)
	}
	return nil
}

// InfoAction prints what the engines can discover about a model file
// without running it.
func InfoAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected one model file argument")
	}
	path := c.Args().First()

	switch fp.Ext(path) {
	case ".tflite":
		loader, err := inf.NewDefaultTFLiteModelLoader()
		if err != nil {
			return err
		}
		model, err := loader.Load(path)
		if err != nil {
			return err
		}
		defer utils.UncheckedErrorFunc(model.Close)
		info := model.Info
		fmt.Fprintf(c.App.Writer, "input: shape=%v type=%s\n", info.InputShape, info.InputTensorType)
		fmt.Fprintf(c.App.Writer, "outputs: %d %v\n", info.OutputTensorCount, info.OutputTensorTypes)
	case ".onnx":
		if !ort.IsInitialized() {
			if lib := c.Path(flagOnnxLibrary); lib != "" {
				ort.SetSharedLibraryPath(lib)
			}
			if err := ort.InitializeEnvironment(); err != nil {
				return errors.Wrap(err, "could not initialize the onnx runtime")
			}
			defer func() {
				utils.UncheckedError(ort.DestroyEnvironment())
			}()
		}
		inputs, outputs, err := ort.GetInputOutputInfo(path)
		if err != nil {
			return errors.Wrapf(err, "could not read model info from %s", path)
		}
		for _, in := range inputs {
			fmt.Fprintf(c.App.Writer, "input %s: shape=%v type=%s\n", in.Name, in.Dimensions, in.DataType)
		}
		for _, out := range outputs {
			fmt.Fprintf(c.App.Writer, "output %s: shape=%v type=%s\n", out.Name, out.Dimensions, out.DataType)
		}
	default:
		return errors.Errorf("no engine can load model files with extension %q", fp.Ext(path))
	}
	return nil
}
