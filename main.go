package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/tomkapa/sui-patreon-sub001/internal/appinit"
	"github.com/tomkapa/sui-patreon-sub001/internal/background"
	"github.com/tomkapa/sui-patreon-sub001/internal/controller"
	"github.com/tomkapa/sui-patreon-sub001/internal/keyserver"
	"github.com/tomkapa/sui-patreon-sub001/internal/service"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/retryutils"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/timingutils"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	var configPath string

	serveFunc := getServeFunc(&configPath)

	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"s"},
				Usage:   "Start as server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "conf",
						Aliases:     []string{"c"},
						Value:       "server.yaml",
						EnvVars:     []string{"PSS_CONF"},
						Destination: &configPath,
					},
				},
				Action: serveFunc,
			},
		},
	}

	// Run the cli helper
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func getServeFunc(configPath *string) func(c *cli.Context) error {
	serveFunc := func(c *cli.Context) error {
		// Load server info from `server.yaml`
		serverInfo, err := appinit.LoadServerInfo(*configPath)
		if err != nil {
			return err
		}

		timingutils.ShowTimingLogs = serverInfo.ShowTimingLogs

		// Instantiate the external clients
		ledgerReader := appinit.SetupLedgerReader(serverInfo.LedgerEndpoint)
		blobStore := appinit.SetupBlobStore(serverInfo.IPFSEndpoint)
		db, err := appinit.SetupDB(serverInfo.MySQLDSN)
		if err != nil {
			return err
		}

		serviceInfo := &service.Info{
			PackageID:    serverInfo.PackageID,
			LedgerReader: ledgerReader,
			BlobStore:    blobStore,
			DB:           db,
		}

		// Instantiate the ambient services shared by both modes
		policySvc := &service.AccessPolicyService{}
		sessionKeySvc := &service.SessionKeyService{}

		router := gin.Default()
		router.Use(controller.CORSMiddleware())
		apiv1Group := router.Group("/api/v1")

		// Instantiate a ping pong controller
		pingPongController := &controller.PingPongController{}
		controller.RegisterHandlers(apiv1Group, pingPongController)

		// Prepare a share server. It will be of use if the app is enabled as a key server.
		var shareServer *background.ShareServer
		if serverInfo.IsKeyServer {
			shares, err := appinit.LoadPriShares(serverInfo.KeyServer.ShareFile)
			if err != nil {
				return err
			}

			keyServer := &keyserver.Server{
				ServerID:      serverInfo.KeyServer.ServerID,
				PackageID:     serverInfo.PackageID,
				Shares:        shares,
				LedgerReader:  ledgerReader,
				PolicySvc:     policySvc,
				SessionKeySvc: sessionKeySvc,
			}

			shareServer = background.NewShareServer(keyServer, runtime.NumCPU())
			if err := shareServer.Start(); err != nil {
				return err
			}

			keyServerController := &controller.KeyServerController{
				GroupName:   "/keyserver",
				ShareServer: shareServer,
			}
			controller.RegisterHandlers(apiv1Group, keyServerController)
		} else {
			masterPublicKey, err := appinit.LoadMasterPublicKey(serverInfo.MasterPublicKey)
			if err != nil {
				return err
			}

			// Instantiate the threshold seal gateway with an HTTP client per key server
			requesters := make([]service.ShareRequester, 0, len(serverInfo.KeyServers))
			for _, ref := range serverInfo.KeyServers {
				requesters = append(requesters, keyserver.NewHTTPClient(ref))
			}
			sealSvc := service.NewSealService(serviceInfo, masterPublicKey, requesters, sessionKeySvc)

			// Instantiate a content access service
			contentSvc := &service.ContentAccessService{
				ServiceInfo:        serviceInfo,
				PolicySvc:          policySvc,
				SessionKeySvc:      sessionKeySvc,
				SealSvc:            sealSvc,
				PublishRetryPolicy: retryutils.DefaultPublishRetryPolicy,
			}

			// Instantiate a content controller
			contentController := &controller.ContentController{
				GroupName:  "/content",
				ContentSvc: contentSvc,
				KeyServers: serverInfo.KeyServers,
				Threshold:  serverInfo.Threshold,
			}
			controller.RegisterHandlers(apiv1Group, contentController)

			// Instantiate a session key controller
			sessionKeyController := &controller.SessionKeyController{
				GroupName:     "/session",
				SessionKeySvc: sessionKeySvc,
				PackageID:     serverInfo.PackageID,
				TTLMinutes:    serverInfo.SessionTTLMinutes,
			}
			controller.RegisterHandlers(apiv1Group, sessionKeyController)
		}

		// Start the HTTP server
		httpServer := &http.Server{
			Addr:    fmt.Sprintf(":%v", serverInfo.Port),
			Handler: router,
		}

		chanError := make(chan error)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil {
				chanError <- errors.Wrap(err, "无法启动 HTTP 服务器")
			}
		}()

		// Listen Ctrl+C signals. On receiving a signal stops the app elegantly
		chanQuit := make(chan os.Signal, 1)
		signal.Notify(chanQuit, os.Interrupt)
		select {
		case err := <-chanError:
			return err
		case <-chanQuit:
			log.Infoln("收到 Ctrl+C 信号，正在退出程序...")

			// Stop the HTTP server elegantly
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			log.Infoln("正在停止 HTTP 服务器...")
			if err := httpServer.Shutdown(ctx); err != nil {
				return errors.Wrap(err, "无法正常停止 HTTP 服务器")
			}

			// Stop the share server if enabled
			if shareServer != nil {
				log.Infoln("正在停止份额服务器...")
				wg, err := shareServer.Stop()
				if err != nil {
					return err
				}
				wg.Wait()
			}
		}

		return nil
	}

	return serveFunc
}
