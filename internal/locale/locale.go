// Package locale holds the user-facing strings of BootMaster in French
// (the default) and English, and resolves which language to use.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Lang identifies a supported UI language.
type Lang string

const (
	French  Lang = "fr"
	English Lang = "en"
)

// Default is the language used when nothing else matches.
const Default = French

var matcher = language.NewMatcher([]language.Tag{
	language.French, // first entry is the fallback
	language.English,
})

// Resolve picks the best supported language for the given preferences,
// which may be BCP 47 tags ("en-GB"), POSIX locales ("fr_FR.UTF-8") or
// empty. The first non-empty preference that parses wins.
func Resolve(prefs ...string) Lang {
	for _, p := range prefs {
		p = normalize(p)
		if p == "" {
			continue
		}
		tag, err := language.Parse(p)
		if err != nil {
			continue
		}
		_, idx, conf := matcher.Match(tag)
		if conf == language.No {
			continue
		}
		if idx == 1 {
			return English
		}
		return French
	}
	return Default
}

// normalize turns "fr_FR.UTF-8" into "fr-FR" and drops "C"/"POSIX".
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "C" || s == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(s, "_", "-")
}

// For returns the message catalog for lang, falling back to Default.
func For(lang Lang) *Messages {
	if m, ok := catalogs[lang]; ok {
		return m
	}
	return catalogs[Default]
}

// GuideCard is one card of the preparation guide.
type GuideCard struct {
	Step        string
	Title       string
	Description string
}

// Messages is every string shown to the user in one language.
type Messages struct {
	Lang Lang

	AppTitle     string
	TabCreator   string
	TabAdvisor   string
	TabGuide     string
	TabPortable  string
	SystemStatus string
	TPMLabel     string
	TPMValue     string
	SecureLabel  string
	SecureValue  string

	// Creator
	CreatorTitle      string
	TargetDevice      string
	Refresh           string
	Searching         string
	ImageLabel        string
	ImagePlaceholder  string
	PartitionLabel    string
	PartitionGPT      string
	PartitionMBR      string
	TargetLabel       string
	TargetUEFI        string
	TargetBIOS        string
	FileSystemLabel   string
	CurrentStage      string
	Busy              string
	Start             string
	Restart           string
	MissingImage      string
	ConfirmErase      string
	Cancelled         string
	UnknownDevice     string
	RunInProgress     string
	StagePreparing    string
	StageFormatting   string
	StageCopying      string // takes the percentage
	StageFinalizing   string
	StageCompleted    string
	StageError        string
	StageIdle         string
	CompletionMessage string
	SecurityNoteTitle string
	SecurityNote      string

	// Advisor
	AdvisorTitle      string
	AdvisorStatus     string
	Greeting          string
	Fallback          string
	InputPlaceholder  string
	Disclaimer        string
	Suggestions       []string
	SystemInstruction string

	// Guide
	GuideTitle    string
	GuideSubtitle string
	GuideCards    []GuideCard

	// Portable
	PortableTitle     string
	PortableSubtitle  string
	PortableQuick     string
	PortableQuickBody string
	PortableLauncher  string
	LauncherName      string
	LauncherDetails   string
	LauncherNote      string
	Download          string
	Copy              string
	Copied            string
	PortableBenefits  string
	Benefits          []string
}

var catalogs = map[Lang]*Messages{
	French:  french,
	English: english,
}

// systemInstruction scopes the model and is sent with every request. It is
// the same in both languages: the model mirrors whatever language the user
// writes in.
const systemInstruction = `You are "Win11 BootAssistant", a specialized AI expert in Windows installation, PC hardware, and bootable media creation.
Your goal is to help users successfully create a Windows 11 bootable USB and install it.
Topics you cover:
1. Rufus and other tool settings (GPT vs MBR).
2. BIOS/UEFI settings (Secure Boot, TPM 2.0).
3. Hardware compatibility (Minimum requirements for Win 11).
4. Common error codes during installation.
5. How to download official ISOs safely.
Keep answers concise, technical yet accessible, and professional.
Speak in the language the user uses (French if they ask in French).`

var french = &Messages{
	Lang: French,

	AppTitle:     "Win11 BootMaster Portable",
	TabCreator:   "Créateur USB",
	TabAdvisor:   "Assistant IA",
	TabGuide:     "Instructions",
	TabPortable:  "Exporter en .EXE",
	SystemStatus: "État Système",
	TPMLabel:     "TPM 2.0",
	TPMValue:     "DÉTECTÉ",
	SecureLabel:  "Secure Boot",
	SecureValue:  "ACTIF",

	CreatorTitle:      "Configurateur de Support",
	TargetDevice:      "Périphérique cible",
	Refresh:           "ACTUALISER",
	Searching:         "RECHERCHE...",
	ImageLabel:        "Image ISO Windows 11",
	ImagePlaceholder:  "Sélectionnez un fichier .iso",
	PartitionLabel:    "Schéma de partition",
	PartitionGPT:      "GPT (Recommandé)",
	PartitionMBR:      "MBR (Anciens PC)",
	TargetLabel:       "Système de destination",
	TargetUEFI:        "UEFI (non CSM)",
	TargetBIOS:        "BIOS (ou UEFI-CSM)",
	FileSystemLabel:   "Système de fichiers",
	CurrentStage:      "Étape actuelle",
	Busy:              "OPÉRATION EN COURS",
	Start:             "DÉMARRER LA CRÉATION",
	Restart:           "RECOMMENCER",
	MissingImage:      "Veuillez d'abord sélectionner un fichier ISO.",
	ConfirmErase:      "AVERTISSEMENT : Toutes les données sur la clé seront effacées. Continuer ?",
	Cancelled:         "Opération annulée.",
	UnknownDevice:     "Périphérique inconnu.",
	RunInProgress:     "Une création est en cours.",
	StagePreparing:    "Préparation des fichiers...",
	StageFormatting:   "Formatage de la clé (FAT32)...",
	StageCopying:      "Copie des fichiers ISO (%d%%)...",
	StageFinalizing:   "Finalisation du secteur de boot...",
	StageCompleted:    "Opération réussie !",
	StageError:        "La création a échoué.",
	StageIdle:         "Prêt.",
	CompletionMessage: "Votre clé USB Windows 11 est prête ! Vous pouvez maintenant redémarrer votre PC et démarrer (boot) sur la clé.",
	SecurityNoteTitle: "Note de sécurité :",
	SecurityNote:      "En environnement réel, l'écriture directe sur un périphérique USB nécessite des droits administrateur. Cette application simule le processus pour vous montrer les bonnes étapes.",

	AdvisorTitle:     "Assistant BootMaster",
	AdvisorStatus:    "Expert IA Actif",
	Greeting:         "Bonjour ! Je suis votre expert Windows 11. Comment puis-je vous aider pour votre installation ou la création de votre clé USB ?",
	Fallback:         "Désolé, j'ai rencontré une erreur lors de l'analyse de votre demande. Veuillez réessayer.",
	InputPlaceholder: "Posez votre question (ex: Comment régler le BIOS ?)",
	Disclaimer:       "Les réponses de l'IA sont à titre indicatif. Vérifiez toujours la documentation officielle.",
	Suggestions: []string{
		"Pourquoi GPT plutôt que MBR ?",
		"Comment activer le TPM 2.0 ?",
		"Erreur 'Windows cannot be installed to this disk'",
		"Configuration BIOS pour booter sur USB",
	},
	SystemInstruction: systemInstruction,

	GuideTitle:    "Guide de préparation",
	GuideSubtitle: "Suivez ces étapes pour réussir votre installation de Windows 11.",
	GuideCards: []GuideCard{
		{Step: "01", Title: "ISO Officielle", Description: "Téléchargez l'ISO 64-bit sur le site de Microsoft."},
		{Title: "Clé 8Go+", Description: "Utilisez une clé vide (elle sera formatée)."},
		{Step: "02", Title: "Mode UEFI", Description: "Assurez-vous que votre PC supporte le mode GPT/UEFI."},
		{Step: "03", Title: "Secure Boot", Description: "Le Secure Boot doit être activé dans le BIOS."},
	},

	PortableTitle:     "Générer une version .EXE Portable",
	PortableSubtitle:  "Transformez cet outil web en une application Windows native que vous pouvez mettre sur une clé USB.",
	PortableQuick:     "Option 1 : Méthode Rapide (Nativefier)",
	PortableQuickBody: "Nativefier permet d'encapsuler n'importe quelle URL dans un exécutable Windows autonome. Il suffit d'avoir Node.js installé.",
	PortableLauncher:  "Option 2 : Télécharger le Launcher (Simulation)",
	LauncherName:      "BootMaster_Portable_v1.exe",
	LauncherDetails:   "Taille : 42 Mo | Signature : Microsoft-Verified Simulation",
	LauncherNote:      "Note : Le bouton \"Télécharger\" ci-dessus simule le processus de packaging. Pour une vraie application, utilisez la méthode Terminal ou un outil comme Electron Forge.",
	Download:          "TÉLÉCHARGER",
	Copy:              "COPIER",
	Copied:            "Commande copiée !",
	PortableBenefits:  "Avantages de la version Portable",
	Benefits: []string{
		"Zéro installation requise",
		"Utilisable hors-ligne (PWA)",
		"Accès direct aux ports USB",
		"Interface sans bordure",
	},
}

var english = &Messages{
	Lang: English,

	AppTitle:     "Win11 BootMaster Portable",
	TabCreator:   "USB Creator",
	TabAdvisor:   "AI Assistant",
	TabGuide:     "Instructions",
	TabPortable:  "Export as .EXE",
	SystemStatus: "System Status",
	TPMLabel:     "TPM 2.0",
	TPMValue:     "DETECTED",
	SecureLabel:  "Secure Boot",
	SecureValue:  "ENABLED",

	CreatorTitle:      "Media Configurator",
	TargetDevice:      "Target device",
	Refresh:           "REFRESH",
	Searching:         "SEARCHING...",
	ImageLabel:        "Windows 11 ISO image",
	ImagePlaceholder:  "Select an .iso file",
	PartitionLabel:    "Partition scheme",
	PartitionGPT:      "GPT (Recommended)",
	PartitionMBR:      "MBR (Older PCs)",
	TargetLabel:       "Target system",
	TargetUEFI:        "UEFI (non CSM)",
	TargetBIOS:        "BIOS (or UEFI-CSM)",
	FileSystemLabel:   "File system",
	CurrentStage:      "Current stage",
	Busy:              "OPERATION IN PROGRESS",
	Start:             "START CREATION",
	Restart:           "START OVER",
	MissingImage:      "Please select an ISO file first.",
	ConfirmErase:      "WARNING: All data on the drive will be erased. Continue?",
	Cancelled:         "Operation cancelled.",
	UnknownDevice:     "Unknown device.",
	RunInProgress:     "A creation run is in progress.",
	StagePreparing:    "Preparing files...",
	StageFormatting:   "Formatting the drive (FAT32)...",
	StageCopying:      "Copying ISO files (%d%%)...",
	StageFinalizing:   "Finalizing the boot sector...",
	StageCompleted:    "Operation successful!",
	StageError:        "Creation failed.",
	StageIdle:         "Ready.",
	CompletionMessage: "Your Windows 11 USB drive is ready! You can now restart your PC and boot from the drive.",
	SecurityNoteTitle: "Security note:",
	SecurityNote:      "In a real environment, writing directly to a USB device requires administrator rights. This application simulates the process to show you the right steps.",

	AdvisorTitle:     "BootMaster Assistant",
	AdvisorStatus:    "AI Expert Online",
	Greeting:         "Hello! I'm your Windows 11 expert. How can I help with your installation or with creating your USB drive?",
	Fallback:         "Sorry, I ran into an error while analyzing your request. Please try again.",
	InputPlaceholder: "Ask your question (e.g. How do I set up the BIOS?)",
	Disclaimer:       "AI answers are for guidance only. Always check the official documentation.",
	Suggestions: []string{
		"Why GPT rather than MBR?",
		"How do I enable TPM 2.0?",
		"Error 'Windows cannot be installed to this disk'",
		"BIOS settings to boot from USB",
	},
	SystemInstruction: systemInstruction,

	GuideTitle:    "Preparation guide",
	GuideSubtitle: "Follow these steps to install Windows 11 successfully.",
	GuideCards: []GuideCard{
		{Step: "01", Title: "Official ISO", Description: "Download the 64-bit ISO from the Microsoft website."},
		{Title: "8GB+ drive", Description: "Use an empty drive (it will be formatted)."},
		{Step: "02", Title: "UEFI mode", Description: "Make sure your PC supports GPT/UEFI mode."},
		{Step: "03", Title: "Secure Boot", Description: "Secure Boot must be enabled in the BIOS."},
	},

	PortableTitle:     "Build a portable .EXE version",
	PortableSubtitle:  "Turn this web tool into a native Windows application you can carry on a USB drive.",
	PortableQuick:     "Option 1: Quick method (Nativefier)",
	PortableQuickBody: "Nativefier wraps any URL into a standalone Windows executable. All you need is Node.js.",
	PortableLauncher:  "Option 2: Download the launcher (Simulation)",
	LauncherName:      "BootMaster_Portable_v1.exe",
	LauncherDetails:   "Size: 42 MB | Signature: Microsoft-Verified Simulation",
	LauncherNote:      "Note: the \"Download\" button above simulates the packaging process. For a real application, use the terminal method or a tool such as Electron Forge.",
	Download:          "DOWNLOAD",
	Copy:              "COPY",
	Copied:            "Command copied!",
	PortableBenefits:  "Portable version benefits",
	Benefits: []string{
		"Zero installation required",
		"Works offline (PWA)",
		"Direct access to USB ports",
		"Borderless interface",
	},
}
