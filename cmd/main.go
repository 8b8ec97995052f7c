package main

import (
	"context"
	"flag"
	stdlog "log"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kubeflight/eks-gateway/pkg/api"
	"github.com/kubeflight/eks-gateway/pkg/audit"
	"github.com/kubeflight/eks-gateway/pkg/cluster"
	"github.com/kubeflight/eks-gateway/pkg/config"
	"github.com/kubeflight/eks-gateway/pkg/ops"
	"github.com/kubeflight/eks-gateway/pkg/version"
)

func main() {
	debug := false
	flag.BoolVar(&debug, "debug", false, "enable debug level logging")
	flag.Parse()

	zl := setupLogger(debug)
	log := zl.Sugar()
	log.With("version", version.Version).Info("Starting eks-gateway api")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config for eks-gateway: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if debug {
		log.Infof("%#v", cfg)
	}

	identity := cluster.Identity{Name: cfg.Cluster.Name, Region: cfg.Cluster.Region}

	aws, err := cluster.NewAWSClients(context.Background(), identity.Region)
	if err != nil {
		log.Fatalf("Error creating AWS clients: %v", err)
	}

	locator := cluster.NewLocator(aws.EKS, log)
	minter := cluster.NewTokenMinter(cluster.NewSTSPresignSigner(aws.Presigner), log)

	var builderOpts []cluster.BuilderOption
	if d, err := cfg.ClusterRequestTimeout(); err != nil {
		log.Fatalf("Invalid cluster request timeout: %v", err)
	} else if d > 0 {
		builderOpts = append(builderOpts, cluster.WithRequestTimeout(d))
	}
	builder := cluster.NewSessionBuilder(locator, minter, log, builderOpts...)

	var providerOpts []cluster.ProviderOption
	if d, err := cfg.ClusterBuildTimeout(); err != nil {
		log.Fatalf("Invalid cluster build timeout: %v", err)
	} else if d > 0 {
		providerOpts = append(providerOpts, cluster.WithBuildTimeout(d))
	}
	provider := cluster.NewSessionProvider(identity, builder, log, providerOpts...)

	sinks := []audit.Sink{audit.NewLogSink(log)}
	if len(cfg.Audit.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(audit.KafkaSinkConfig{
			Brokers:               cfg.Audit.Brokers,
			Topic:                 cfg.Audit.Topic,
			TLSInsecureSkipVerify: cfg.Audit.TLSInsecureSkipVerify,
		}, log)
		if err != nil {
			log.Fatalf("Error creating Kafka audit sink: %v", err)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	recorder := audit.NewRecorder(identity.Name, log, sinks...)

	service := ops.NewService(provider, recorder, log)
	server := api.NewServer(zl, cfg, debug)

	err = server.RegisterAll([]api.APIController{
		ops.NewJobController(service, log),
		ops.NewNamespaceController(service, log),
	})
	if err != nil {
		log.Fatalf("Error registering gateway controllers: %v", err)
	}

	if err := server.Listen(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func setupLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	return logger
}
