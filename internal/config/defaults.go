package config

const (
	defaultConfigPath            = "~/.config/telecine/config.toml"
	defaultOutputDir             = "~/telecine"
	defaultStateDir              = "~/.local/share/telecine"
	defaultLogDir                = "~/.local/share/telecine/logs"
	defaultLogRetentionDays      = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultFilmFormat            = "super8"
	defaultSizeMargin            = 0.08
	defaultThresholdFraction     = 0.98
	defaultROIHeightFraction     = 1.0 / 3.0
	defaultCheckEdges            = "none"
	defaultTensionPeriod         = 50
	defaultTakeupPeriod          = 550
	defaultSpoolPeriod           = 4
	defaultStepPulseUS           = 2
	defaultStepIntervalUS        = 400
	defaultReelPulseMS           = 35
	defaultTensionSteps          = 200
	defaultStepsPerFrame         = 300
	defaultPixelsPerStep         = 4.0
	defaultDeadband              = 5
	defaultMaxCenterIterations   = 10
	defaultMinStep               = 5
	defaultCoarseStep            = 50
	defaultFineStep              = 10
	defaultCalibrationFrames     = 18
	defaultMaxCalibrationFailure = 3
	defaultMaxConsecutiveFailure = 5
	defaultExtension             = "png"
	defaultQueueCapacity         = 5
	defaultMinFreeGiB            = 2
	defaultCameraWidth           = 2028
	defaultCameraHeight          = 1520
	defaultBracketFactor         = 4.0
	defaultSettleFrames          = 2
	defaultNotifyRequestTimeout  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Film: Film{
			Format: defaultFilmFormat,
		},
		Detector: Detector{
			SizeMargin:        defaultSizeMargin,
			ThresholdFraction: defaultThresholdFraction,
			ROIHeightFraction: defaultROIHeightFraction,
			CheckEdges:        defaultCheckEdges,
			CheckLeftEdge:     true,
		},
		Transport: Transport{
			TensionPeriod:  defaultTensionPeriod,
			TakeupPeriod:   defaultTakeupPeriod,
			SpoolPeriod:    defaultSpoolPeriod,
			StepPulseUS:    defaultStepPulseUS,
			StepIntervalUS: defaultStepIntervalUS,
			ReelPulseMS:    defaultReelPulseMS,
			TensionSteps:   defaultTensionSteps,
		},
		Pins: Pins{
			FeedStep:     "GPIO17",
			FeedDir:      "GPIO27",
			FeedEnable:   "GPIO22",
			PullStep:     "GPIO23",
			PullDir:      "GPIO24",
			PullEnable:   "GPIO25",
			SupplyStep:   "GPIO5",
			SupplyDir:    "GPIO6",
			SupplyEnable: "GPIO13",
			TakeupStep:   "GPIO19",
			TakeupDir:    "GPIO26",
			TakeupEnable: "GPIO21",
			SupplyReel:   "GPIO12",
			TakeupReel:   "GPIO16",
			Lamp:         "GPIO20",
		},
		Registration: Registration{
			StepsForward:           defaultStepsPerFrame,
			StepsBackward:          defaultStepsPerFrame,
			PixelsPerStep:          defaultPixelsPerStep,
			Deadband:               defaultDeadband,
			MaxCenterIterations:    defaultMaxCenterIterations,
			MinStep:                defaultMinStep,
			CoarseStep:             defaultCoarseStep,
			FineStep:               defaultFineStep,
			CalibrationFrames:      defaultCalibrationFrames,
			MaxCalibrationFailures: defaultMaxCalibrationFailure,
		},
		Job: Job{
			MaxConsecutiveFailures: defaultMaxConsecutiveFailure,
			Extension:              defaultExtension,
			QueueCapacity:          defaultQueueCapacity,
			MinFreeGiB:             defaultMinFreeGiB,
		},
		Camera: Camera{
			Width:         defaultCameraWidth,
			Height:        defaultCameraHeight,
			BracketFactor: defaultBracketFactor,
			SettleFrames:  defaultSettleFrames,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			JobStart:       true,
			JobComplete:    true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
