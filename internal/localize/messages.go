package localize

// Message keys. The English text doubles as the key and the fallback.
const (
	MsgNoInput          = "No file or URL provided."
	MsgBinaryMissing    = "Engine binary not found: %s"
	MsgModelMissing     = "Model not found: %s"
	MsgFailure          = "Error during %s: %s"
	MsgFailureDetail    = "Error during %s: %s\n%s"
	MsgEmptyTranscript  = "(empty transcription)"
	MsgEstimate         = "(audio duration ~ %.1f min, estimated processing time ~ %d min %d s)"
	MsgCompleted        = "Transcription complete."
	MsgCompletedWarning = "Transcription complete with warnings."
	MsgSegmentNoText    = "Segment %d produced no text."
	MsgDurationUnknown  = "Audio duration unknown; processing as a single segment."
	MsgNoHistory        = "No runs yet."
	MsgInvalidLanguage  = "Unrecognized language: %s"
	MsgInvalidURL       = "Invalid URL: %s"

	ProgressPreparing   = "Preparing..."
	ProgressDownloading = "Downloading remote media..."
	ProgressExtracting  = "Extracting audio..."
	ProgressSplitting   = "Splitting audio..."
	ProgressSegment     = "Transcribing segment %d/%d..."
	ProgressDocument    = "Rendering document..."
	ProgressFinalizing  = "Finalizing..."
	ProgressDone        = "Done"

	StageDownload   = "download"
	StageTranscode  = "audio conversion"
	StageSplit      = "splitting"
	StageEngine     = "transcription of segment %d"
	StageRender     = "document export"
	StageAllocate   = "run allocation"
	StageValidation = "validation"
	StageInternal   = "processing"
)

var french = map[string]string{
	MsgNoInput:          "Aucun fichier ni URL fournie.",
	MsgBinaryMissing:    "Binaire introuvable : %s",
	MsgModelMissing:     "Modèle introuvable : %s",
	MsgFailure:          "Erreur pendant %s : %s",
	MsgFailureDetail:    "Erreur pendant %s : %s\n%s",
	MsgEmptyTranscript:  "(Transcription vide)",
	MsgEstimate:         "(Durée audio ~ %.1f min, temps de traitement estimé ~ %d min %d s)",
	MsgCompleted:        "Transcription terminée.",
	MsgCompletedWarning: "Transcription terminée avec des avertissements.",
	MsgSegmentNoText:    "Le segment %d n'a produit aucun texte.",
	MsgDurationUnknown:  "Durée audio inconnue ; traitement en un seul segment.",
	MsgNoHistory:        "Aucun job encore.",
	MsgInvalidLanguage:  "Langue non reconnue : %s",
	MsgInvalidURL:       "URL invalide : %s",

	ProgressPreparing:   "Préparation...",
	ProgressDownloading: "Téléchargement du média distant...",
	ProgressExtracting:  "Extraction audio...",
	ProgressSplitting:   "Découpage de l'audio...",
	ProgressSegment:     "Transcription du segment %d/%d...",
	ProgressDocument:    "Génération du document...",
	ProgressFinalizing:  "Finalisation...",
	ProgressDone:        "Terminé",

	StageDownload:   "le téléchargement",
	StageTranscode:  "la conversion audio",
	StageSplit:      "le découpage",
	StageEngine:     "la transcription du segment %d",
	StageRender:     "l'export du document",
	StageAllocate:   "l'allocation du run",
	StageValidation: "la validation",
	StageInternal:   "le traitement",
}
